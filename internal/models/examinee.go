package models

import "time"

// Examinee is the claimant being examined. Not necessarily a portal user;
// an examinee account may be linked later via UserID.
type Examinee struct {
	BaseModelWithDeleted
	UserID          *string `gorm:"uniqueIndex"`
	FirstName       string  `gorm:"not null"`
	LastName        string  `gorm:"not null"`
	DateOfBirth     *time.Time
	Email           string
	Phone           string
	Address         string
	MatterReference string `gorm:"index"` // claim / matter number from the referrer
	Notes           string

	User *User `gorm:"foreignKey:UserID"`
}
