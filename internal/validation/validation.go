// Package validation checks questionnaire answers before they reach the
// recommendation engine.
package validation

import (
	"errors"
	"fmt"
	"healthhelper/internal/models"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// leadingInt matches the digits an age answer starts with,
	// so "45.5" and "45 years" read as 45.
	leadingInt = regexp.MustCompile(`^\+?([0-9]+)`)
)

// FormInput is the raw questionnaire as typed by the user.
type FormInput struct {
	Age                string `form:"age" validate:"required,leadingint"`
	Gender             string `form:"gender" validate:"omitempty,oneof=female male other"`
	SmokingStatus      string `form:"smoking" validate:"omitempty,oneof=yes no"`
	AlcoholConsumption string `form:"alcohol" validate:"omitempty,oneof=none light moderate heavy"`
	PhysicalActivity   string `form:"activity" validate:"omitempty,oneof=sedentary light moderate active"`
}

// Normalize trims surrounding whitespace from every answer.
func (f FormInput) Normalize() FormInput {
	return FormInput{
		Age:                strings.TrimSpace(f.Age),
		Gender:             strings.TrimSpace(f.Gender),
		SmokingStatus:      strings.TrimSpace(f.SmokingStatus),
		AlcoholConsumption: strings.TrimSpace(f.AlcoholConsumption),
		PhysicalActivity:   strings.TrimSpace(f.PhysicalActivity),
	}
}

// FieldError is one answer that failed validation.
type FieldError struct {
	Field   string
	Tag     string
	Value   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Error collects every failed answer of one form.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their questionnaire name
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("form"); name != "" {
				return name
			}
			return fld.Name
		})
		validate.RegisterValidation("leadingint", func(fl validator.FieldLevel) bool {
			return leadingInt.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks a form. It returns nil or an *Error.
func Validate(in FormInput) error {
	err := GetValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Field: "form", Tag: "unknown", Message: err.Error()}}}
	}
	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprint(fe.Value()),
			Message: translate(fe),
		}
	}
	return out
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "leadingint":
		return fmt.Sprintf("%s must start with a whole number, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// ParseProfile validates a form and converts it to a profile.
func ParseProfile(in FormInput) (models.Profile, error) {
	in = in.Normalize()
	if err := Validate(in); err != nil {
		return models.Profile{}, err
	}
	digits := leadingInt.FindStringSubmatch(in.Age)[1]
	age, err := strconv.Atoi(digits)
	if err != nil {
		return models.Profile{}, &Error{Fields: []FieldError{{
			Field: "age", Tag: "leadingint", Value: in.Age,
			Message: fmt.Sprintf("age %q is out of range", in.Age),
		}}}
	}
	return models.Profile{
		Age:                age,
		Gender:             in.Gender,
		SmokingStatus:      in.SmokingStatus,
		AlcoholConsumption: in.AlcoholConsumption,
		PhysicalActivity:   in.PhysicalActivity,
	}, nil
}
