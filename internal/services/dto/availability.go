package dto

import "time"

type AvailabilityQuery struct {
	AppointmentType string `form:"appointment_type" binding:"required" validate:"required,max=100"`
	From            string `form:"from" binding:"required" validate:"required"` // YYYY-MM-DD
	To              string `form:"to" binding:"required" validate:"required"`   // YYYY-MM-DD
}

// Slot is one bookable interval, UTC.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityResponse struct {
	SpecialistID    string `json:"specialist_id"`
	AppointmentType string `json:"appointment_type"`
	Timezone        string `json:"timezone"`
	Slots           []Slot `json:"slots"`
}
