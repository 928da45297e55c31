package models

import "time"

// Booking links an examinee, a referrer and a specialist to one
// scheduled appointment.
type Booking struct {
	BaseModelWithDeleted
	ExamineeID   string `gorm:"not null;index"`
	ReferrerID   string `gorm:"not null;index"`
	SpecialistID string `gorm:"not null;index"`

	AppointmentType string        `gorm:"not null"`
	StartsAt        time.Time     `gorm:"not null;index"`
	EndsAt          time.Time     `gorm:"not null"`
	Telehealth      bool          `gorm:"default:false"`
	Location        string        // empty for telehealth bookings
	Status          BookingStatus `gorm:"type:varchar(20);default:'draft';index"`

	// ProviderAppointmentID is the appointment id at the scheduling
	// provider, set once the provider confirms. Webhook events address
	// bookings through it.
	ProviderAppointmentID string `gorm:"index"`

	CancellationReason string
	CancelledBy        string // user id of the actor who cancelled
	Notes              string

	Examinee   *Examinee   `gorm:"foreignKey:ExamineeID"`
	Referrer   *Referrer   `gorm:"foreignKey:ReferrerID"`
	Specialist *Specialist `gorm:"foreignKey:SpecialistID"`
	Documents  []Document  `gorm:"foreignKey:BookingID"`
}
