package dto

import (
	"time"

	"medbook_backend/internal/models"
)

type RegisterReferrerRequest struct {
	Email          string `json:"email" binding:"required" validate:"required,email"`
	Password       string `json:"password" binding:"required" validate:"required,min=8"`
	Name           string `json:"name" binding:"required" validate:"required,min=2,max=120"`
	OrganizationID string `json:"organization_id" binding:"required" validate:"required,uuid4"`
	Phone          string `json:"phone" validate:"max=30"`
	Position       string `json:"position" validate:"max=120"`
}

type RegisterExamineeRequest struct {
	Email      string `json:"email" binding:"required" validate:"required,email"`
	Password   string `json:"password" binding:"required" validate:"required,min=8"`
	Name       string `json:"name" binding:"required" validate:"required,min=2,max=120"`
	ExamineeID string `json:"examinee_id" binding:"required" validate:"required,uuid4"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
	UserID       string          `json:"user_id"`
	Role         models.UserRole `json:"role"`
}
