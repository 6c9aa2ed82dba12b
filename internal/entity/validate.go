package entity

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// markupPattern matches anything that looks like an HTML or script tag.
// Free-text fields carrying it are rejected before they reach the store.
var markupPattern = regexp.MustCompile(`(?i)<\s*/?\s*[a-z!][^>]*>`)

// FieldValidator validates entities through go-playground struct tags.
// The custom "nomarkup" rule rejects content-injection payloads in
// free-text fields after NFC normalization, so tags split across
// combining sequences cannot slip through.
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator builds the engine with the nomarkup rule registered.
func NewFieldValidator() *FieldValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire names, not Go field names, so handlers can echo them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for a blank tag or nil fn.
	_ = v.RegisterValidation("nomarkup", noMarkup)
	return &FieldValidator{validate: v}
}

// Validate runs struct-tag validation and converts failures into the
// service error taxonomy.
func (fv *FieldValidator) Validate(e any) error {
	err := fv.validate.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{
			Field:  verr.Field(),
			Reason: reasonFor(verr),
		})
	}
	return &ValidationError{Fields: fields}
}

func noMarkup(fl validator.FieldLevel) bool {
	return !markupPattern.MatchString(norm.NFC.String(fl.Field().String()))
}

func reasonFor(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return "must not be empty"
	case "nomarkup":
		return "must not contain markup"
	case "max":
		return "exceeds maximum length " + verr.Param()
	case "min":
		return "below minimum length " + verr.Param()
	default:
		return "failed rule " + verr.Tag()
	}
}
