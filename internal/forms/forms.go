// Package forms validates user input before any API call is made.
//
// Each form is a struct with `form` tags naming its HTML fields and `validate` tags for
// [validator]. [Validate] returns one human message per failing field.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
)

var validate *validator.Validate

// emailPattern is the address shape accepted by the login and signup forms.
var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("mail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("pdfname", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), ".pdf")
	})
	validate.RegisterValidation("contenttype", func(fl validator.FieldLevel) bool {
		return models.ContentType(fl.Field().String()).Valid()
	})
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

// Error joins the messages so FieldErrors can travel as an error.
func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, msg := range fe {
		msgs = append(msgs, msg)
	}
	return fmt.Sprintf("%s: %s", shared.ErrValidation, strings.Join(msgs, "; "))
}

// Unwrap makes FieldErrors match [shared.ErrValidation].
func (fe FieldErrors) Unwrap() error { return shared.ErrValidation }

// Err returns fe as an error, or nil when there are no failures.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// fieldMessages are keyed by "field.tag".
var fieldMessages = map[string]string{
	"email.required":           "Email is required",
	"email.mail":               "Invalid email address",
	"password.required":        "Password is required",
	"name.required":            "Name is required",
	"confirmPassword.eqfield":  "The passwords do not match",
	"subject.required":         "Subject is required",
	"grade.required":           "Grade is required",
	"title.required":           "Title is required",
	"content_type.required":    "Content type is required",
	"content_type.contenttype": "Content type must be lesson or quiz",
	"file.required":            "Please select a PDF file",
	"file.pdfname":             "Please select a PDF file",
	"file_type.eq":             "Please select a PDF file",
	"file_size.ltefield":       "The file is too large",
}

// tagMessages are fallbacks when no field-specific message exists.
var tagMessages = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s characters",
	"max":      "%s must be at most %s characters",
}

func message(e validator.FieldError) string {
	if msg, ok := fieldMessages[e.Field()+"."+e.Tag()]; ok {
		return msg
	}

	label := fieldLabel(e.Field())
	if msg, ok := tagMessages[e.Tag()]; ok {
		if strings.Count(msg, "%s") == 2 {
			return fmt.Sprintf(msg, label, e.Param())
		}
		return fmt.Sprintf(msg, label)
	}
	return fmt.Sprintf("%s is invalid", label)
}

// fieldLabel turns "content_type" into "Content type".
func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Validate checks a form struct (passed by pointer) and returns its field errors.
// The result is empty when the form is valid.
func Validate(form any) FieldErrors {
	out := FieldErrors{}

	err := validate.Struct(form)
	if err == nil {
		return out
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		out["form"] = err.Error()
		return out
	}

	for _, e := range validationErrs {
		if _, seen := out[e.Field()]; !seen {
			out[e.Field()] = message(e)
		}
	}
	return out
}
