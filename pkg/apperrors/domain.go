package apperrors

import "net/http"

// Sentinel errors for the booking domain. Services return these and the
// Gin handler maps them onto HTTP responses.
var (
	// Auth
	ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)
	ErrInvalidToken       = New(CodeInvalidToken, "auth", "Invalid or malformed token", http.StatusUnauthorized)
	ErrTokenExpired       = New(CodeTokenExpired, "auth", "Token has expired", http.StatusUnauthorized)
	ErrEmailTaken         = New(CodeAlreadyExists, "auth", "Email is already registered", http.StatusConflict)
	ErrInsufficientRole   = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)

	// Users / organizations
	ErrUserNotFound         = New(CodeNotFound, "user", "User not found", http.StatusNotFound)
	ErrOrganizationNotFound = New(CodeNotFound, "organization", "Organization not found", http.StatusNotFound)
	ErrExamineeNotFound     = New(CodeNotFound, "examinee", "Examinee not found", http.StatusNotFound)
	ErrReferrerNotFound     = New(CodeNotFound, "referrer", "Referrer not found", http.StatusNotFound)
	ErrSpecialistNotFound   = New(CodeNotFound, "specialist", "Specialist not found", http.StatusNotFound)

	// Bookings
	ErrBookingNotFound          = New(CodeNotFound, "booking", "Booking not found", http.StatusNotFound)
	ErrInvalidBookingTransition = New(CodeInvalidStatus, "booking", "Booking status transition not allowed", http.StatusConflict)
	ErrBookingInPast            = New(CodeInvalidOperation, "booking", "Booking time is in the past", http.StatusBadRequest)
	ErrSlotUnavailable          = New(CodeConflict, "booking", "Requested time slot is not available", http.StatusConflict)

	// Availability
	ErrUnknownAppointmentType = New(CodeInvalidOperation, "availability", "Unknown appointment type for this specialist", http.StatusBadRequest)
	ErrInvalidDateRange       = New(CodeValidationFailed, "availability", "Invalid date range", http.StatusBadRequest)
	ErrDateRangeTooLarge      = New(CodeLimitExceeded, "availability", "Date range exceeds the maximum window", http.StatusBadRequest)

	// Documents
	ErrDocumentNotFound    = New(CodeNotFound, "document", "Document not found", http.StatusNotFound)
	ErrDocumentForbidden   = New(CodeForbidden, "document", "Role may not perform this action on this document category", http.StatusForbidden)
	ErrDocumentTooLarge    = New(CodeLimitExceeded, "document", "File exceeds the maximum upload size", http.StatusRequestEntityTooLarge)
	ErrUnsupportedFileType = New(CodeValidationFailed, "document", "File type is not allowed", http.StatusBadRequest)

	// Webhooks
	ErrWebhookBadSignature = New(CodeInvalidSignature, "webhook", "Webhook signature verification failed", http.StatusUnauthorized)

	// Rate limiting
	ErrRateLimited = New(CodeRateLimited, "ratelimit", "Too many requests", http.StatusTooManyRequests)
)
