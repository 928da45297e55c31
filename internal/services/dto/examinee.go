package dto

import "time"

type CreateExamineeRequest struct {
	FirstName       string     `json:"first_name" binding:"required" validate:"required,min=1,max=100"`
	LastName        string     `json:"last_name" binding:"required" validate:"required,min=1,max=100"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Email           string     `json:"email" validate:"omitempty,email"`
	Phone           string     `json:"phone" validate:"max=30"`
	Address         string     `json:"address" validate:"max=300"`
	MatterReference string     `json:"matter_reference" validate:"max=100"`
	Notes           string     `json:"notes" validate:"max=2000"`
}

type UpdateExamineeRequest struct {
	FirstName       *string    `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string    `json:"last_name" validate:"omitempty,min=1,max=100"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	Phone           *string    `json:"phone" validate:"omitempty,max=30"`
	Address         *string    `json:"address" validate:"omitempty,max=300"`
	MatterReference *string    `json:"matter_reference" validate:"omitempty,max=100"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
}

type ExamineeResponse struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Address         string     `json:"address,omitempty"`
	MatterReference string     `json:"matter_reference,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
