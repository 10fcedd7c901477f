package validation

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Violations maps a field name (its JSON name) to a single error code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already failed another rule.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Merge copies other into v without overwriting existing entries.
func (v Violations) Merge(other Violations) {
	for f, c := range other {
		v.Add(f, c)
	}
}

var (
	siteNoPattern = regexp.MustCompile(`^[A-Za-z0-9]+(-[A-Za-z0-9]+)*$`)
	gstPattern    = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][A-Z0-9]Z[A-Z0-9]$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// GSTLength is the fixed length of a GST identification number.
const GSTLength = 15

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		if err := v.RegisterValidation("siteno", func(fl validator.FieldLevel) bool {
			return siteNoPattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// codes translates validator tags into the console's violation codes.
var codes = map[string]string{
	"required": "required",
	"min":      "too_short",
	"max":      "too_long",
	"oneof":    "invalid_choice",
	"email":    "invalid_email",
	"siteno":   "alphanumeric",
	"gte":      "out_of_range",
	"lte":      "out_of_range",
}

// Struct runs the `validate` tags of s and returns field-scoped codes.
func Struct(s any) Violations {
	v := make(Violations)
	err := engine().Struct(s)
	if err == nil {
		return v
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("_", "invalid_format")
		return v
	}
	for _, fe := range fieldErrs {
		code, ok := codes[fe.Tag()]
		if !ok {
			code = "invalid_format"
		}
		v.Add(fe.Field(), code)
	}
	return v
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		v.Add(field, "invalid_format")
		return
	}
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

// Length checks the rune count of value against [minLen, maxLen].
func Length(field, value string, minLen, maxLen int, v Violations) {
	n := utf8.RuneCountInString(value)
	if n < minLen {
		v.Add(field, "too_short")
	} else if n > maxLen {
		v.Add(field, "too_long")
	}
}

// OptionalEmail validates value when it is present and non-blank.
func OptionalEmail(field string, value *string, v Violations) {
	s := Trimmed(value)
	if s == "" {
		return
	}
	if err := engine().Var(s, "email"); err != nil {
		v.Add(field, "invalid_email")
	}
}

// OptionalGST validates a GST number when present: the length first, then the
// fixed pattern (2 digits, 5 letters, 4 digits, a letter, an alphanumeric,
// a literal Z, an alphanumeric).
func OptionalGST(field string, value *string, v Violations) {
	s := strings.ToUpper(Trimmed(value))
	if s == "" {
		return
	}
	if len(s) != GSTLength {
		v.Add(field, "invalid_length")
		return
	}
	if !gstPattern.MatchString(s) {
		v.Add(field, "invalid_format")
	}
}

// Trimmed dereferences an optional string, returning "" for nil.
func Trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
