package dto

import "time"

type CreateOrganizationRequest struct {
	Name         string `json:"name" binding:"required" validate:"required,min=2,max=200"`
	ABN          string `json:"abn" validate:"abn"`
	Address      string `json:"address" validate:"max=300"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"max=50"`
	Postcode     string `json:"postcode" validate:"max=10"`
	Phone        string `json:"phone" validate:"max=30"`
	BillingEmail string `json:"billing_email" validate:"omitempty,email"`
}

type UpdateOrganizationRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=200"`
	ABN          *string `json:"abn" validate:"omitempty,abn"`
	Address      *string `json:"address" validate:"omitempty,max=300"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	State        *string `json:"state" validate:"omitempty,max=50"`
	Postcode     *string `json:"postcode" validate:"omitempty,max=10"`
	Phone        *string `json:"phone" validate:"omitempty,max=30"`
	BillingEmail *string `json:"billing_email" validate:"omitempty,email"`
}

type OrganizationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ABN          string    `json:"abn,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Postcode     string    `json:"postcode,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	BillingEmail string    `json:"billing_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReferrerSummary struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
}
