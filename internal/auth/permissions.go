package auth

import "medbook_backend/internal/models"

// DocAction is an operation on a booking document.
type DocAction string

const (
	DocRead   DocAction = "read"
	DocUpload DocAction = "upload"
	DocDelete DocAction = "delete"
)

type roleCategory struct {
	Role     models.UserRole
	Category models.DocumentCategory
}

// documentMatrix maps (role, document category) to the actions that role
// may perform. Admins are handled separately and may do everything.
//
// Referrers never see dictations: those are the specialist's working
// audio and stay between the specialist and the practice.
var documentMatrix = map[roleCategory][]DocAction{
	// Specialist: reads the intake paperwork, produces reports and dictations.
	{models.UserRoleSpecialist, models.DocumentConsentForm}:    {DocRead},
	{models.UserRoleSpecialist, models.DocumentReferralLetter}: {DocRead},
	{models.UserRoleSpecialist, models.DocumentCorrespondence}: {DocRead},
	{models.UserRoleSpecialist, models.DocumentReport}:         {DocRead, DocUpload},
	{models.UserRoleSpecialist, models.DocumentDictation}:      {DocRead, DocUpload},

	// Referrer: supplies the paperwork, receives the report and invoice.
	{models.UserRoleReferrer, models.DocumentConsentForm}:    {DocRead, DocUpload},
	{models.UserRoleReferrer, models.DocumentReferralLetter}: {DocRead, DocUpload},
	{models.UserRoleReferrer, models.DocumentCorrespondence}: {DocRead, DocUpload},
	{models.UserRoleReferrer, models.DocumentReport}:         {DocRead},
	{models.UserRoleReferrer, models.DocumentInvoice}:        {DocRead},

	// Examinee: signs their own consent form, nothing else.
	{models.UserRoleExaminee, models.DocumentConsentForm}: {DocRead, DocUpload},
}

// CanAccessDocument reports whether role may perform action on a document
// of the given category.
func CanAccessDocument(role models.UserRole, category models.DocumentCategory, action DocAction) bool {
	if role == models.UserRoleAdmin {
		return true
	}

	actions, ok := documentMatrix[roleCategory{role, category}]
	if !ok {
		return false
	}

	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// AllowedCategories returns the categories a role can read, used to filter
// document listings.
func AllowedCategories(role models.UserRole) []models.DocumentCategory {
	if role == models.UserRoleAdmin {
		return models.AllDocumentCategories
	}

	var out []models.DocumentCategory
	for _, cat := range models.AllDocumentCategories {
		if CanAccessDocument(role, cat, DocRead) {
			out = append(out, cat)
		}
	}
	return out
}
