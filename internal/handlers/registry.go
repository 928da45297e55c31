package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	OrganizationHandler *OrganizationHandler
	ExamineeHandler     *ExamineeHandler
	SpecialistHandler   *SpecialistHandler
	BookingHandler      *BookingHandler
	DocumentHandler     *DocumentHandler
	WebhookHandler      *WebhookHandler
	HealthHandler       *HealthHandler
}
