package models

type UserStatus string
type UserRole string
type BookingStatus string
type DocumentCategory string
type WebhookStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleAdmin      UserRole = "admin"
	UserRoleSpecialist UserRole = "specialist"
	UserRoleReferrer   UserRole = "referrer"
	UserRoleExaminee   UserRole = "examinee"

	BookingStatusDraft       BookingStatus = "draft"
	BookingStatusRequested   BookingStatus = "requested"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusRescheduled BookingStatus = "rescheduled"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusNoShow      BookingStatus = "no_show"

	DocumentConsentForm    DocumentCategory = "consent_form"
	DocumentReferralLetter DocumentCategory = "referral_letter"
	DocumentReport         DocumentCategory = "report"
	DocumentDictation      DocumentCategory = "dictation"
	DocumentCorrespondence DocumentCategory = "correspondence"
	DocumentInvoice        DocumentCategory = "invoice"

	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusProcessed WebhookStatus = "processed"
	WebhookStatusFailed    WebhookStatus = "failed"
	WebhookStatusSkipped   WebhookStatus = "skipped"
)

// BookingTransitions is the allowed status transition table.
// Completed, cancelled and no_show are terminal.
var BookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft:       {BookingStatusRequested, BookingStatusCancelled},
	BookingStatusRequested:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:   {BookingStatusRescheduled, BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusRescheduled: {BookingStatusConfirmed, BookingStatusRescheduled, BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range BookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllDocumentCategories lists the known categories, used by validation.
var AllDocumentCategories = []DocumentCategory{
	DocumentConsentForm,
	DocumentReferralLetter,
	DocumentReport,
	DocumentDictation,
	DocumentCorrespondence,
	DocumentInvoice,
}
