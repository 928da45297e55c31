package dto

import (
	"time"

	"medbook_backend/internal/models"
)

type WorkingWindowInput struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Start   string `json:"start" binding:"required" validate:"required,hhmm"`
	End     string `json:"end" binding:"required" validate:"required,hhmm"`
}

type AppointmentTypeInput struct {
	ProviderType string `json:"provider_type" binding:"required" validate:"required,max=100"`
	DurationMin  int    `json:"duration_min" binding:"required" validate:"required,min=5,max=480"`
	BufferMin    int    `json:"buffer_min" validate:"min=0,max=120"`
	Telehealth   bool   `json:"telehealth"`
}

type CreateSpecialistRequest struct {
	Email          string `json:"email" binding:"required" validate:"required,email"`
	Password       string `json:"password" binding:"required" validate:"required,min=8"`
	Name           string `json:"name" binding:"required" validate:"required,min=2,max=120"`
	Specialty      string `json:"specialty" binding:"required" validate:"required,min=2,max=100"`
	Qualifications string `json:"qualifications" validate:"max=500"`
	Biography      string `json:"biography" validate:"max=5000"`
	Timezone       string `json:"timezone" validate:"max=64"`
	Telehealth     bool   `json:"telehealth"`
	CalendarID     string `json:"calendar_id" validate:"max=200"`

	Locations        []string                        `json:"locations" validate:"dive,max=300"`
	WorkingHours     []WorkingWindowInput            `json:"working_hours" validate:"dive"`
	AppointmentTypes map[string]AppointmentTypeInput `json:"appointment_types" validate:"dive"`
}

type UpdateSpecialistRequest struct {
	Specialty      *string `json:"specialty" validate:"omitempty,min=2,max=100"`
	Qualifications *string `json:"qualifications" validate:"omitempty,max=500"`
	Biography      *string `json:"biography" validate:"omitempty,max=5000"`
	Timezone       *string `json:"timezone" validate:"omitempty,max=64"`
	Telehealth     *bool   `json:"telehealth"`
	CalendarID     *string `json:"calendar_id" validate:"omitempty,max=200"`
	IsAccepting    *bool   `json:"is_accepting"`

	Locations        []string                        `json:"locations" validate:"omitempty,dive,max=300"`
	WorkingHours     []WorkingWindowInput            `json:"working_hours" validate:"omitempty,dive"`
	AppointmentTypes map[string]AppointmentTypeInput `json:"appointment_types" validate:"omitempty,dive"`
}

type SpecialistResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	Qualifications string `json:"qualifications,omitempty"`
	Biography      string `json:"biography,omitempty"`
	Timezone       string `json:"timezone"`
	Telehealth     bool   `json:"telehealth"`
	IsAccepting    bool   `json:"is_accepting"`

	Locations        []string                                 `json:"locations,omitempty"`
	WorkingHours     []models.WorkingWindow                   `json:"working_hours,omitempty"`
	AppointmentTypes map[string]models.AppointmentTypeMapping `json:"appointment_types,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
