package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	tenDigits = regexp.MustCompile(`\d{10}`)

	schemaOnce sync.Once
	schema     *validator.Validate
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the custom tags shared with document validation.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v, "json")
	}
}

// Struct validates a document against its `validate` tags. Field names in
// errors follow the bson tag so messages match the stored schema.
func Struct(s any) error {
	schemaOnce.Do(func() {
		schema = validator.New(validator.WithRequiredStructEnabled())
		configure(schema, "bson")
	})
	return schema.Struct(s)
}

func configure(v *validator.Validate, nameTag string) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(nameTag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterAlias("pwd", "min=8")
	v.RegisterAlias("username", "min=3,max=30")
	_ = v.RegisterValidation("phone10", isPhone10)
	_ = v.RegisterValidation("notfuture", isNotFuture)
	_ = v.RegisterValidation("lnglat", isLngLat)
}

func isPhone10(fl validator.FieldLevel) bool {
	return tenDigits.MatchString(fl.Field().String())
}

func isNotFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(time.Now())
}

// isLngLat accepts an empty pair or exactly [lng, lat] in range
func isLngLat(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Slice {
		return false
	}
	if f.Len() == 0 {
		return true
	}
	if f.Len() != 2 {
		return false
	}
	lng, lat := f.Index(0).Float(), f.Index(1).Float()
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fieldPath(fe)] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

// FirstMessage returns the first validation failure as "<field> <message>".
// Non-validation errors yield "invalid payload".
func FirstMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fieldPath(fe) + " " + formatFieldError(fe)
	}
	return "invalid payload"
}

// IsValidation reports whether err carries field validation failures
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

// Fields lists the failing field paths in stable order
func Fields(err error) []string {
	d := ToDetails(err)
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fieldPath drops the top-level struct name: "User.preferences.age.min" -> "preferences.age.min"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()
	kind := fe.Kind()

	switch tag {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + param + " is present"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.Join(splitParams(param), ", ")
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(kind) {
			return "must be at least " + param
		}
		if kind == reflect.Slice {
			return "must contain at least " + param + " items"
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(kind) {
			return "must be at most " + param
		}
		if kind == reflect.Slice {
			return "must contain at most " + param + " items"
		}
		return "must be at most " + param + " characters long"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be less than or equal to " + param
	case "gtfield":
		return "must be after " + lowerFirst(param)
	case "gtefield":
		return "must be greater than or equal to " + lowerFirst(param)
	case "numeric":
		return "must be numeric"
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "mongodb":
		return "must be a valid id"
	case "dive":
		return "array validation failed"

	case "pwd":
		return "must be at least 8 characters long"
	case "username":
		return "must be between 3 and 30 characters long"
	case "phone10":
		return "is not a valid phone number"
	case "notfuture":
		return "must not be in the future"
	case "lnglat":
		return "must be a [longitude, latitude] pair"

	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// splitParams handles oneof params; quoted values like 'Not Specified' stay whole
func splitParams(p string) []string {
	if p == "" {
		return nil
	}
	var out []string
	for len(p) > 0 {
		p = strings.TrimLeft(p, " ")
		if p == "" {
			break
		}
		if p[0] == '\'' {
			end := strings.IndexByte(p[1:], '\'')
			if end < 0 {
				out = append(out, p[1:])
				break
			}
			out = append(out, p[1:end+1])
			p = p[end+2:]
			continue
		}
		end := strings.IndexByte(p, ' ')
		if end < 0 {
			out = append(out, p)
			break
		}
		out = append(out, p[:end])
		p = p[end:]
	}
	return out
}
