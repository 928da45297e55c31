package auth

import (
	"testing"

	"medbook_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessDocument(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		role     models.UserRole
		category models.DocumentCategory
		action   DocAction
		allowed  bool
	}{
		{"admin may do anything", models.UserRoleAdmin, models.DocumentDictation, DocDelete, true},
		{"specialist uploads reports", models.UserRoleSpecialist, models.DocumentReport, DocUpload, true},
		{"specialist uploads dictations", models.UserRoleSpecialist, models.DocumentDictation, DocUpload, true},
		{"specialist may not upload consent forms", models.UserRoleSpecialist, models.DocumentConsentForm, DocUpload, false},
		{"specialist reads correspondence", models.UserRoleSpecialist, models.DocumentCorrespondence, DocRead, true},
		{"correspondence is read-only for specialists", models.UserRoleSpecialist, models.DocumentCorrespondence, DocUpload, false},
		{"specialist never sees invoices", models.UserRoleSpecialist, models.DocumentInvoice, DocRead, false},
		{"referrer uploads referral letters", models.UserRoleReferrer, models.DocumentReferralLetter, DocUpload, true},
		{"referrer reads the report", models.UserRoleReferrer, models.DocumentReport, DocRead, true},
		{"referrer may not upload reports", models.UserRoleReferrer, models.DocumentReport, DocUpload, false},
		{"referrer never sees dictations", models.UserRoleReferrer, models.DocumentDictation, DocRead, false},
		{"examinee signs their consent form", models.UserRoleExaminee, models.DocumentConsentForm, DocUpload, true},
		{"examinee sees nothing else", models.UserRoleExaminee, models.DocumentReport, DocRead, false},
		{"nobody but admin deletes", models.UserRoleSpecialist, models.DocumentReport, DocDelete, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.allowed, CanAccessDocument(tc.role, tc.category, tc.action))
		})
	}
}

func TestAllowedCategories(t *testing.T) {
	t.Parallel()

	// Admin sees every category
	assert.ElementsMatch(t, models.AllDocumentCategories, AllowedCategories(models.UserRoleAdmin))

	// Referrer sees everything except dictations
	referrer := AllowedCategories(models.UserRoleReferrer)
	assert.NotContains(t, referrer, models.DocumentDictation)
	assert.Contains(t, referrer, models.DocumentReport)
	assert.Contains(t, referrer, models.DocumentInvoice)

	// Examinee is confined to their consent form
	assert.Equal(t, []models.DocumentCategory{models.DocumentConsentForm}, AllowedCategories(models.UserRoleExaminee))
}
