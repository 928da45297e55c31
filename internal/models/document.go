package models

// Document is a file attached to a booking: consent forms, referral
// letters, reports, dictations, correspondence, invoices.
type Document struct {
	BaseModelWithDeleted
	BookingID  string           `gorm:"not null;index"`
	UploaderID string           `gorm:"not null;index"`
	Category   DocumentCategory `gorm:"type:varchar(30);not null;index"`

	OriginalName string `gorm:"not null"`
	Path         string `gorm:"not null"` // key inside the object store
	MimeType     string
	Size         int64

	Booking  *Booking `gorm:"foreignKey:BookingID"`
	Uploader *User    `gorm:"foreignKey:UploaderID"`
}
