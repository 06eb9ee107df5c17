package quote

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Company is the customer a quote is issued to. Fields are free-form.
type Company struct {
	Name    string `validate:"required"`
	TaxID   string `validate:"required"`
	Email   string `validate:"required,email"`
	Phone   string
	Address string
	Contact string `validate:"required"`
}

// InvalidCompanyError lists the company fields that failed validation.
type InvalidCompanyError struct {
	Problems []string
}

func (e *InvalidCompanyError) Error() string {
	return "invalid company: " + strings.Join(e.Problems, "; ")
}

// Validate checks that the fields needed to issue a quote are present.
func (c Company) Validate() error {
	normalized := Company{
		Name:    strings.TrimSpace(c.Name),
		TaxID:   strings.TrimSpace(c.TaxID),
		Email:   strings.TrimSpace(c.Email),
		Contact: strings.TrimSpace(c.Contact),
	}
	err := validate.Struct(normalized)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, formatFieldError(fe))
	}
	return &InvalidCompanyError{Problems: problems}
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " failed validation: " + e.Tag()
	}
}
