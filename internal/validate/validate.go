// Package validate holds the form validation predicates shared by the API
// handlers: pure field checks plus struct-level request validation.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxUnweightedGPA bounds the 4.0-scale unweighted figure.
	MaxUnweightedGPA = 4.0
	// MaxWeightedGPA bounds weighted and UC figures, which carry rigor bonuses.
	MaxWeightedGPA = 5.0
)

// Errors accumulates field-level validation failures. Submission is blocked
// iff the map is non-empty; every field is checked before any error surfaces.
type Errors map[string]string

// Add records a failure for the named field, keeping the first message.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; exists {
		return
	}
	e[field] = message
}

// Any reports whether any field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Required returns an error message when the value is empty or whitespace.
func Required(value, fieldLabel string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required", fieldLabel)
	}
	return ""
}

// IsNumber reports whether the value parses to a finite number.
func IsNumber(value string) bool {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return !math.IsInf(parsed, 0) && !math.IsNaN(parsed)
}

// IsGPA reports whether the value lies within [0, max].
func IsGPA(value, max float64) bool {
	if math.IsNaN(value) {
		return false
	}
	return value >= 0 && value <= max
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Struct validates the tagged request struct and folds failures into an
// Errors map keyed by the struct field name.
func Struct(request interface{}) Errors {
	errs := Errors{}
	err := structValidator.Struct(request)
	if err == nil {
		return errs
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("request", "request is invalid")
		return errs
	}
	for _, fieldError := range validationErrors {
		errs.Add(fieldError.Field(), messageForTag(fieldError))
	}
	return errs
}

func messageForTag(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldError.Field())
	case "min", "gte":
		return fmt.Sprintf("%s is below the allowed minimum", fieldError.Field())
	case "max", "lte":
		return fmt.Sprintf("%s exceeds the allowed maximum", fieldError.Field())
	case "oneof":
		return fmt.Sprintf("%s has an unsupported value", fieldError.Field())
	default:
		return fmt.Sprintf("%s is invalid", fieldError.Field())
	}
}
