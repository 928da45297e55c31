package models

import "gorm.io/datatypes"

// Specialist is a practitioner profile with calendar and location settings.
type Specialist struct {
	BaseModel
	UserID         string `gorm:"not null;uniqueIndex"`
	Specialty      string `gorm:"not null"` // e.g. orthopaedics, psychiatry
	Qualifications string
	Biography      string
	Timezone       string `gorm:"default:'Australia/Sydney'"`
	Telehealth     bool   `gorm:"default:false"`
	CalendarID     string `gorm:"index"` // id of the calendar at the scheduling provider
	IsAccepting    bool   `gorm:"default:true"`

	// Locations is a JSON array of practice addresses.
	Locations datatypes.JSON

	// WorkingHours is a JSON array of WorkingWindow entries.
	WorkingHours datatypes.JSON

	// AppointmentTypes maps an internal appointment type name to the
	// provider event type and slot geometry. JSON object keyed by type,
	// values are AppointmentTypeMapping.
	AppointmentTypes datatypes.JSON

	User     *User     `gorm:"foreignKey:UserID"`
	Bookings []Booking `gorm:"foreignKey:SpecialistID"`
}

// WorkingWindow is one recurring block of consulting hours.
// Weekday follows time.Weekday (0 = Sunday). Start and End are "HH:MM"
// wall-clock times in the specialist's timezone.
type WorkingWindow struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// AppointmentTypeMapping ties an internal appointment type to the
// scheduling provider and defines how slots are cut for it.
type AppointmentTypeMapping struct {
	ProviderType string `json:"provider_type"`
	DurationMin  int    `json:"duration_min"`
	BufferMin    int    `json:"buffer_min"`
	Telehealth   bool   `json:"telehealth"`
}
