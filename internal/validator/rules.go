package validator

import (
	"regexp"

	"medbook_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	abnPattern  = regexp.MustCompile(`^\d{11}$`)
	hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// registerCustomRules wires the domain-specific tags.
func registerCustomRules(v *validator.Validate) error {
	if err := v.RegisterValidation("doc_category", validateDocCategory); err != nil {
		return err
	}
	if err := v.RegisterValidation("abn", validateABN); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", validateHHMM)
}

func validateDocCategory(fl validator.FieldLevel) bool {
	value := models.DocumentCategory(fl.Field().String())
	for _, cat := range models.AllDocumentCategories {
		if cat == value {
			return true
		}
	}
	return false
}

func validateABN(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // optional field, pair with required when mandatory
	}
	return abnPattern.MatchString(value)
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}
