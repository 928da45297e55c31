package models

// Organization is a referring firm: a law practice or an insurer that
// requests independent medical examinations.
type Organization struct {
	BaseModelWithDeleted
	Name         string `gorm:"not null;uniqueIndex"`
	ABN          string `gorm:"type:varchar(11)"`
	Address      string
	City         string
	State        string
	Postcode     string
	Phone        string
	BillingEmail string

	Referrers []Referrer `gorm:"foreignKey:OrganizationID"`
}

// Referrer is a person at an organization who books examinations.
type Referrer struct {
	BaseModel
	UserID         string `gorm:"not null;uniqueIndex"`
	OrganizationID string `gorm:"not null;index"`
	Phone          string
	Position       string

	User         *User         `gorm:"foreignKey:UserID"`
	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}
