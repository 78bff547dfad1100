package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	AlphaNumberSpaceRegex = regexp.MustCompile("^[a-zA-Z0-9 ]+$")
	SkuRegex              = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
	PeriodRegex           = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	EmailRegex            = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
)

const (
	// MinPhoneDigits is the minimum number of digits a phone number must carry.
	MinPhoneDigits = 10
	minNitDigits   = 9
	maxNitDigits   = 10
)

// Validator is a validator that validates the given struct.
type Validator interface {
	// Validate validates the given struct
	Validate(s any) error
}

type DefaultValidator struct {
	v *validator.Validate
}

// NewDefaultValidator creates a new default validator.
// It returns a new DefaultValidator and an error if the validator registration fails.
//
// Field errors are reported with the json name of the field, and every rule of
// every field is evaluated so the caller receives all violations at once.
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Decimals are compared as float64 so numeric tags such as gt=0 apply to them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	customs := map[string]validator.Func{
		"alphanumspace": validateAlphanumspace,
		"enum":          validateEnum,
		"email":         validateEmail,
		"notblank":      validateNotBlank,
		"phone":         validatePhone,
		"nit":           validateNit,
		"sku":           validateSku,
		"period":        validatePeriod,
		"maxbytes":      validateMaxBytes,
	}
	for tag, fn := range customs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s validator: %w", tag, err)
		}
	}

	return &DefaultValidator{v: v}, nil
}

// MustNewDefaultValidator is like NewDefaultValidator but panics on error.
func MustNewDefaultValidator() *DefaultValidator {
	v, err := NewDefaultValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

// IsValidationError checks if the given error is a validation error
func IsValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "field is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes long", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "alphanumspace":
		return "must contain only alphanumeric characters and spaces"
	case "phone":
		return fmt.Sprintf("must contain at least %d digits", MinPhoneDigits)
	case "nit":
		return fmt.Sprintf("must contain between %d and %d digits", minNitDigits, maxNitDigits)
	case "sku":
		return "must be 3 to 50 alphanumeric characters, '-' or '_'"
	case "period":
		return "must have the format YYYY-MM"
	case "ip":
		return "must be a valid IP address"
	case "enum":
		if e, ok := fe.Value().(interface{ Allowed() []string }); ok {
			return fmt.Sprintf("must be one of [%s]", strings.Join(e.Allowed(), " "))
		}
		return fmt.Sprintf("invalid enum value: %s", fe.Value())
	case "sort":
		return fmt.Sprintf("must contain only allowed sort fields: [%s]", fe.Param())
	default:
		return "is invalid"
	}
}

// Digits returns only the decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeNit strips spaces and hyphens from a tax id.
func NormalizeNit(nit string) string {
	return phoneSeparators.Replace(strings.TrimSpace(nit))
}

func validateAlphanumspace(fl validator.FieldLevel) bool {
	return AlphaNumberSpaceRegex.MatchString(fl.Field().String())
}

func validateEnum(fl validator.FieldLevel) bool {
	type Enum interface {
		Validate() error
	}

	value, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}

	return value.Validate() == nil
}

// validateEmail replaces the builtin email tag with the stricter
// local@domain.tld form.
func validateEmail(fl validator.FieldLevel) bool {
	return EmailRegex.MatchString(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validatePhone accepts spaces and hyphens as separators; everything else
// must be a digit, with an optional leading '+'.
func validatePhone(fl validator.FieldLevel) bool {
	s := phoneSeparators.Replace(fl.Field().String())
	s = strings.TrimPrefix(s, "+")
	if s == "" || Digits(s) != s {
		return false
	}
	return len(s) >= MinPhoneDigits
}

func validateNit(fl validator.FieldLevel) bool {
	s := NormalizeNit(fl.Field().String())
	if Digits(s) != s {
		return false
	}
	return len(s) >= minNitDigits && len(s) <= maxNitDigits
}

func validateSku(fl validator.FieldLevel) bool {
	return SkuRegex.MatchString(fl.Field().String())
}

func validatePeriod(fl validator.FieldLevel) bool {
	return PeriodRegex.MatchString(fl.Field().String())
}

// validateMaxBytes bounds the UTF-8 encoded length, unlike max which counts runes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("maxbytes: bad param %q", fl.Param()))
	}
	return len(fl.Field().String()) <= limit
}
