package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()

	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,19}$`)
	postalPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,9}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("phone_loose", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("postal_code_loose", func(fl validator.FieldLevel) bool {
		return postalPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return LuhnValid(fl.Field().String())
	})
	return v
}

// Struct validates dest against its validate tags and reports failures as a
// pkgerrors.Error carrying the given code with per-field details.
func Struct(code pkgerrors.Code, dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(code, err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func Var(code pkgerrors.Code, field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return pkgerrors.New(code, "validation failed").WithDetails(map[string]string{field: validationMessage(errs[0])})
		}
		return pkgerrors.Wrap(code, err, "validation failed")
	}
	return nil
}

func formatValidationErrors(code pkgerrors.Code, err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(code, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(code, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain letters only"
	case "numeric":
		return "must contain digits only"
	case "phone_loose":
		return "must be a valid phone number"
	case "postal_code_loose":
		return "must be a valid postal code"
	case "luhn":
		return "must be a valid card number"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

// LuhnValid reports whether number (digits only) passes the Luhn checksum.
func LuhnValid(number string) bool {
	if len(number) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
