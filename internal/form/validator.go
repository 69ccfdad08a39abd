package form

import (
	"fmt"

	"github.com/fieldhq/jobsite-forms/internal/domain/entity"
)

// RequiredFieldMessage is the fixed message attached to every required-field
// violation.
const RequiredFieldMessage = "is required"

// ValidationResult aggregates structural validation failures across a
// submission. Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateFieldValue checks a single field's canonical value against the
// template. Only the required-field rule applies: nil and the empty string
// are violations, everything else passes. Unknown field ids are not
// validated.
func ValidateFieldValue(tmpl *entity.FormTemplate, fieldID string, v entity.Value) error {
	field, ok := tmpl.Field(fieldID)
	if !ok {
		return nil
	}
	if !field.Required {
		return nil
	}
	if v == nil || v.Empty() {
		return &entity.ValidationError{
			FieldErrors: []string{requiredMessage(field)},
		}
	}
	return nil
}

// ValidateStructure checks every declared field and aggregates all
// required-field violations into one result. This is the single gate
// consulted before a submission moves to PENDING or APPROVED.
func ValidateStructure(tmpl *entity.FormTemplate, values map[string]entity.Value) ValidationResult {
	var errs []string
	for _, g := range tmpl.Groupings {
		for _, f := range g.Fields {
			if !f.Required {
				continue
			}
			v, ok := values[f.ID]
			if !ok || v == nil || v.Empty() {
				errs = append(errs, requiredMessage(f))
			}
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func requiredMessage(f entity.FormField) string {
	label := f.Label
	if label == "" {
		label = f.ID
	}
	return fmt.Sprintf("%s %s", label, RequiredFieldMessage)
}
