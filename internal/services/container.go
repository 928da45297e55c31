package services

import "medbook_backend/internal/email"

// ServiceContainer bundles the application services for wiring.
type ServiceContainer struct {
	AuthService         *AuthService
	OrganizationService *OrganizationService
	ExamineeService     *ExamineeService
	SpecialistService   *SpecialistService
	AvailabilityService *AvailabilityService
	BookingService      *BookingService
	DocumentService     *DocumentService
	WebhookService      *WebhookService
	EmailService        email.Provider
}
