package dto

import "encoding/json"

// ProviderEvent is the scheduling provider's callback payload.
type ProviderEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// ProviderAppointmentData is the data block carried by appointment events.
type ProviderAppointmentData struct {
	AppointmentID string `json:"appointment_id"`
	CalendarID    string `json:"calendar_id"`
	StartsAt      string `json:"starts_at"` // RFC3339
	EndsAt        string `json:"ends_at"`   // RFC3339
	Reason        string `json:"reason,omitempty"`
}
