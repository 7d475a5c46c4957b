package resource

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldIssue is one structured validation problem, addressed by the JSON
// path of the offending field within the submitted array.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a whole batch: one invalid record fails the entire
// replace operation before any mutation happens.
type ValidationError struct {
	Issues []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Issues[0].Field, e.Issues[0].Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report issues by JSON field name, not Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})

	return v
}

// ValidateBatch validates every record and enforces the unique-identifier
// invariant within the batch. It returns a *ValidationError carrying every
// issue found, or nil when the batch is acceptable as a whole.
func ValidateBatch[T any](records []T, idOf func(T) string) error {
	var issues []FieldIssue
	seen := make(map[string]int, len(records))

	for i, record := range records {
		if err := validate.Struct(record); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return err
			}
			for _, fe := range verrs {
				issues = append(issues, FieldIssue{
					Field:   fmt.Sprintf("[%d].%s", i, trimNamespace(fe.Namespace())),
					Message: messageFor(fe),
				})
			}
		}
		id := idOf(record)
		if id == "" {
			continue
		}
		if prev, dup := seen[id]; dup {
			issues = append(issues, FieldIssue{
				Field:   fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("duplicate identifier %q (already used at [%d])", id, prev),
			})
			continue
		}
		seen[id] = i
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// trimNamespace drops the leading type name from validator namespaces,
// e.g. "Evento.extendedProps.tema" -> "extendedProps.tema".
func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "isodate":
		return "must be an ISO-8601 date string"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
