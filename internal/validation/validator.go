package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Common validation errors
var (
	ErrInvalidName        = errors.New("invalid display name")
	ErrInvalidRoomID      = errors.New("invalid room id")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrInvalidRange       = errors.New("value out of valid range")
	ErrInvalidEnum        = errors.New("invalid enum value")
	ErrStringTooLong      = errors.New("string exceeds maximum length")
	ErrStringTooShort     = errors.New("string below minimum length")
	ErrContainsXSSPattern = errors.New("input contains suspicious XSS patterns")
)

const (
	MaxNameLength      = 24
	MaxRequestIDLength = 64
)

var (
	roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

	xssPatterns = []string{
		"<script", "</script", "javascript:", "onerror=", "onload=",
		"<iframe", "</iframe", "<object", "</object", "eval(",
	}
)

// ValidGameActions lists the betting intents a seat may send.
var ValidGameActions = []string{"fold", "check", "call", "raise", "allin"}

// SanitizeString strips null bytes and surrounding whitespace.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// CheckXSS checks for common XSS patterns
func CheckXSS(input string) error {
	lower := strings.ToLower(input)
	for _, pattern := range xssPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: contains '%s'", ErrContainsXSSPattern, pattern)
		}
	}
	return nil
}

// DisplayName returns the sanitized name or an error. Length is counted in
// runes so non-latin names get the same budget.
func DisplayName(name string) (string, error) {
	clean := SanitizeString(name)
	n := utf8.RuneCountInString(clean)
	if n == 0 {
		return "", fmt.Errorf("%w: name is required", ErrStringTooShort)
	}
	if n > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrStringTooLong, MaxNameLength)
	}
	for _, r := range clean {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: control characters are not allowed", ErrInvalidName)
		}
	}
	if err := CheckXSS(clean); err != nil {
		return "", fmt.Errorf("name: %w", err)
	}
	return clean, nil
}

// ValidateRoomID accepts 1-32 letters, digits, underscores and hyphens.
func ValidateRoomID(roomID string) error {
	if !roomIDRegex.MatchString(roomID) {
		return fmt.Errorf("%w: use 1-32 letters, digits, '_' or '-'", ErrInvalidRoomID)
	}
	return nil
}

// ValidateRequestID bounds client supplied idempotency keys.
func ValidateRequestID(requestID string) error {
	if len(requestID) > MaxRequestIDLength {
		return fmt.Errorf("%w: requestId must be at most %d characters", ErrStringTooLong, MaxRequestIDLength)
	}
	return nil
}

// ValidateEnum validates value is in allowed list
func ValidateEnum(value string, allowed []string, fieldName string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %v", ErrInvalidEnum, fieldName, allowed)
}

// ValidateGameAction validates poker game action
func ValidateGameAction(action string) error {
	return ValidateEnum(action, ValidGameActions, "action")
}

// ValidateIntRange validates integer is within range
func ValidateIntRange(value, min, max int, fieldName string) error {
	if value < min || value > max {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidRange, fieldName, min, max)
	}
	return nil
}

// NonNegativeInt converts a decoded JSON value into an int. Strings, NaN,
// infinities, fractions and negatives are rejected.
func NonNegativeInt(value interface{}, fieldName string) (int, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidNumber, fieldName)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidNumber, fieldName)
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidNumber, fieldName)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidNumber, fieldName)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", ErrInvalidNumber, fieldName)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: %s must be non-negative", ErrInvalidRange, fieldName)
	}
	if f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s is too large", ErrInvalidRange, fieldName)
	}
	return int(f), nil
}
