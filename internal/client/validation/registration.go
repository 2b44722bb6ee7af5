package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldSelfie          = "selfie"
	FieldGovernmentID    = "governmentId"
	FieldTerms           = "terms"
)

const (
	MsgSelfieRequired       = "Selfie is required"
	MsgGovernmentIDRequired = "Government ID is required"
	MsgTermsRequired        = "You must accept the terms of service"
)

var labels = map[string]string{
	FieldFirstName: "First name",
	FieldLastName:  "Last name",
	FieldEmail:     "Email",
	FieldPhone:     "Phone number",
}

// FieldError is one failed check.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists failed checks in form order.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Message returns the first message reported for field, or "".
func (e Errors) Message(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Registration is the sign-up form as entered.
type Registration struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        []byte
	ConfirmPassword []byte
	HasSelfie       bool
	HasGovernmentID bool
	AcceptedTerms   bool
}

type identity struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateRegistration runs every check and returns Errors, or nil when the
// form can be submitted. Identity fields are checked after trimming.
func ValidateRegistration(r Registration) error {
	var errs Errors

	err := validate.Struct(identity{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
	})
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs = append(errs, FieldError{Field: fe.Field(), Message: translate(fe)})
		}
	} else if err != nil {
		return err
	}

	if msg := ValidatePassword(r.Password); msg != "" {
		errs = append(errs, FieldError{Field: FieldPassword, Message: msg})
	}
	if msg := ValidateConfirmPassword(r.Password, r.ConfirmPassword); msg != "" {
		errs = append(errs, FieldError{Field: FieldConfirmPassword, Message: msg})
	}
	if !r.HasSelfie {
		errs = append(errs, FieldError{Field: FieldSelfie, Message: MsgSelfieRequired})
	}
	if !r.HasGovernmentID {
		errs = append(errs, FieldError{Field: FieldGovernmentID, Message: MsgGovernmentIDRequired})
	}
	if !r.AcceptedTerms {
		errs = append(errs, FieldError{Field: FieldTerms, Message: MsgTermsRequired})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func translate(fe validator.FieldError) string {
	label := labels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	default:
		return label + " is invalid"
	}
}
