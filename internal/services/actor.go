package services

import "medbook_backend/internal/models"

// Actor identifies the authenticated caller for authorization decisions
// made inside services.
type Actor struct {
	UserID string
	Role   models.UserRole
}
