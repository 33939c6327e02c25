package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Item labels come from survey column headers: short alphanumeric codes
	// like "A1" or "neurot_3".
	itemLabelPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// MaxItemLabelLength bounds item labels so report tables stay readable.
var MaxItemLabelLength = 50

func init() {
	validate = validator.New()

	// estimator restricts a field to the supported network estimators.
	_ = validate.RegisterValidation("estimator", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || v == "cor" || v == "pcor"
	})

	// itemlabel restricts a field to valid item codes.
	_ = validate.RegisterValidation("itemlabel", func(fl validator.FieldLevel) bool {
		return ValidateItemLabel(fl.Field().String()) == nil
	})
}

// ValidateStruct runs struct-tag validation on any tagged config or request
// type and rewrites the first failure into a readable error.
func ValidateStruct(s any) error {
	if s == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateItemLabel validates a single item label.
func ValidateItemLabel(label string) error {
	if label == "" {
		return errors.New("item label cannot be empty")
	}
	if len(label) > MaxItemLabelLength {
		return fmt.Errorf("item label '%s' exceeds maximum length of %d characters", label, MaxItemLabelLength)
	}
	if !itemLabelPattern.MatchString(label) {
		return fmt.Errorf("item label '%s' is invalid (must start with a letter, followed by alphanumeric or underscore)", label)
	}
	return nil
}

// ValidateItemLabels validates a full set of labels and rejects duplicates.
func ValidateItemLabels(labels []string) error {
	if len(labels) == 0 {
		return errors.New("at least one item label is required")
	}
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if err := ValidateItemLabel(label); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("item label '%s' appears more than once", label)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "lt":
			return fmt.Errorf("%s: must be less than %s", field, param)
		case "estimator":
			return fmt.Errorf("%s: must be \"cor\" or \"pcor\"", field)
		case "itemlabel":
			return fmt.Errorf("%s: invalid item label", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
