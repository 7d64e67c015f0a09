package common

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors. Rules stop at the first failure
// so a type error is not followed by a range error on the same value.
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
			break
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Rule names carried on ValidationError.Rule.
const (
	RuleRequired = "required"
	RuleType     = "type"
	RuleRange    = "range"
	RuleEnum     = "enum"
	RuleFormat   = "format"
)

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Rule: RuleRequired, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Rule: RuleRequired, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Rule: RuleRequired, Message: "is required"}
		}
	}
	return nil
}

// Integer accepts whole numbers; 7.0 passes, 7.5 and "7" do not.
func Integer(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return nil
	}
	if _, ok := AsInt(value); ok {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Rule: RuleType, Message: "must be a whole number"}
}

// Number accepts any numeric value.
func Number(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return nil
	}
	if _, ok := AsFloat(value); ok {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Rule: RuleType, Message: "must be a number"}
}

// String accepts string values.
func String(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return nil
	}
	if _, ok := value.(string); ok {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Rule: RuleType, Message: "must be a string"}
}

// Bool accepts boolean values.
func Bool(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return nil
	}
	if _, ok := value.(bool); ok {
		return nil
	}
	return &ValidationError{Field: fieldName, Value: value, Rule: RuleType, Message: "must be true or false"}
}

func NonNegative(fieldName string, value interface{}) *ValidationError {
	f, ok := AsFloat(value)
	if !ok {
		return nil
	}
	if f < 0 {
		return &ValidationError{Field: fieldName, Value: value, Rule: RuleRange, Message: "must not be negative"}
	}
	return nil
}

// Fraction requires a value within 0..1.
func Fraction(fieldName string, value interface{}) *ValidationError {
	f, ok := AsFloat(value)
	if !ok {
		return nil
	}
	if f < 0 || f > 1 {
		return &ValidationError{Field: fieldName, Value: value, Rule: RuleRange, Message: "must be between 0 and 1"}
	}
	return nil
}

// Date requires an ISO-8601 calendar date (YYYY-MM-DD).
func Date(fieldName string, value interface{}) *ValidationError {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Rule: RuleFormat, Message: "must be a date formatted YYYY-MM-DD"}
	}
	return nil
}

// OneOf builds a rule restricting strings to the allowed set.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Rule:    RuleEnum,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
		}
	}
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Rule:    RuleRange,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// AsFloat reports the numeric value of v for the integer and float kinds decoders produce.
func AsFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsInt reports the integer value of v when v is a whole number.
func AsInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32, float64:
		f, ok := AsFloat(n)
		if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
