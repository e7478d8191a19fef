package decision

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// NewDecision is the caller-supplied content of a decision.
type NewDecision struct {
	DecisionText   string  `json:"decision_text" validate:"required,max=10000"`
	Rationale      *string `json:"rationale,omitempty" validate:"omitempty,max=20000"`
	SourcePlatform *string `json:"source_platform,omitempty" validate:"omitempty,max=64"`
	SourceLink     *string `json:"source_link,omitempty" validate:"omitempty,max=2048,url"`

	// IdempotencyKey travels out of band (Idempotency-Key header).
	IdempotencyKey string `json:"-"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalize trims every field, drops blank optionals and validates the
// result. The returned value is what gets persisted.
func (n NewDecision) Normalize() (NewDecision, error) {
	out := NewDecision{
		DecisionText:   strings.TrimSpace(n.DecisionText),
		Rationale:      trimOptional(n.Rationale),
		SourcePlatform: trimOptional(n.SourcePlatform),
		SourceLink:     trimOptional(n.SourceLink),
		IdempotencyKey: strings.TrimSpace(n.IdempotencyKey),
	}
	if out.SourcePlatform != nil {
		lowered := strings.ToLower(*out.SourcePlatform)
		out.SourcePlatform = &lowered
	}
	if err := validatorInstance().Struct(out); err != nil {
		return NewDecision{}, toValidationError(err)
	}
	return out, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return Invalid("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return Invalid(fe.Field(), "is required")
	case "max":
		return Invalid(fe.Field(), "must be at most "+fe.Param()+" characters")
	case "url":
		return Invalid(fe.Field(), "must be an absolute URL")
	default:
		return Invalid(fe.Field(), "is invalid ("+fe.Tag()+")")
	}
}
