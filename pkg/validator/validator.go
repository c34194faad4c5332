package validator

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

// TagMailAddress is the validation tag for a bare local@domain.tld address.
const TagMailAddress = "mailaddr"

var addressRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsAddress reports whether s looks like local@domain.tld.
func IsAddress(s string) bool {
	return addressRegex.MatchString(s)
}

func isMailAddress(fl validator.FieldLevel) bool {
	return IsAddress(fl.Field().String())
}

// RegisterCustomValidators registers custom validation functions with the validator.
func RegisterCustomValidators(validate *validator.Validate) error {
	return validate.RegisterValidation(TagMailAddress, isMailAddress)
}

// Validator runs field checks in caller order and stops at the first failure,
// translating it into the matching SDK sentinel.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the SDK's custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		// Only fails on an empty tag or nil func, neither of which applies here.
		panic(fmt.Sprintf("validator: register custom rules: %v", err))
	}
	return &Validator{validate: v}
}

// Engine exposes the underlying go-playground validator.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Present fails with ErrMissingRequiredField when s is empty.
func (v *Validator) Present(field, s string) error {
	if err := v.validate.Var(s, "required"); err != nil {
		return sdkerrors.Field(field, sdkerrors.ErrMissingRequiredField)
	}
	return nil
}

// NotEmpty fails with ErrMissingRequiredField when list has no elements.
func (v *Validator) NotEmpty(field string, list any) error {
	if err := v.validate.Var(list, "gt=0"); err != nil {
		return sdkerrors.Field(field, sdkerrors.ErrMissingRequiredField)
	}
	return nil
}

// Address fails with ErrInvalidAddressFormat when email is not local@domain.tld.
func (v *Validator) Address(field, email string) error {
	if err := v.validate.Var(email, TagMailAddress); err != nil {
		return sdkerrors.Field(field, sdkerrors.ErrInvalidAddressFormat)
	}
	return nil
}

// Struct validates s using its `validate` tags and reports the first failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	switch fe.Tag() {
	case TagMailAddress:
		return sdkerrors.Field(fe.Namespace(), sdkerrors.ErrInvalidAddressFormat)
	case "required", "required_if", "required_without", "gt", "min":
		return sdkerrors.Field(fe.Namespace(), sdkerrors.ErrMissingRequiredField)
	default:
		return sdkerrors.Field(fe.Namespace(), fmt.Errorf("failed %q rule: %w", fe.Tag(), err))
	}
}
