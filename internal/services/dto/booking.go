package dto

import (
	"time"

	"medbook_backend/internal/models"
)

type CreateBookingRequest struct {
	ExamineeID      string    `json:"examinee_id" binding:"required" validate:"required,uuid4"`
	SpecialistID    string    `json:"specialist_id" binding:"required" validate:"required,uuid4"`
	AppointmentType string    `json:"appointment_type" binding:"required" validate:"required,max=100"`
	StartsAt        time.Time `json:"starts_at" binding:"required" validate:"required"`
	Telehealth      bool      `json:"telehealth"`
	Location        string    `json:"location" validate:"max=300"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

type RescheduleBookingRequest struct {
	StartsAt time.Time `json:"starts_at" binding:"required" validate:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ConfirmBookingRequest struct {
	// ProviderAppointmentID is assigned by the scheduling provider when
	// the appointment is pushed to the specialist's calendar.
	ProviderAppointmentID string `json:"provider_appointment_id" validate:"max=200"`
}

type BookingResponse struct {
	ID              string               `json:"id"`
	ExamineeID      string               `json:"examinee_id"`
	ReferrerID      string               `json:"referrer_id"`
	SpecialistID    string               `json:"specialist_id"`
	AppointmentType string               `json:"appointment_type"`
	StartsAt        time.Time            `json:"starts_at"`
	EndsAt          time.Time            `json:"ends_at"`
	Telehealth      bool                 `json:"telehealth"`
	Location        string               `json:"location,omitempty"`
	Status          models.BookingStatus `json:"status"`
	Notes           string               `json:"notes,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`

	ExamineeName   string `json:"examinee_name,omitempty"`
	SpecialistName string `json:"specialist_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
