package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrFieldEmpty is returned when a required field is empty or whitespace-only.
var ErrFieldEmpty = errors.New("field is required")

// ErrFieldTooShort is returned when a field's length is below the minimum.
var ErrFieldTooShort = errors.New("field too short")

// ErrFieldTooLong is returned when a field's length exceeds the maximum.
var ErrFieldTooLong = errors.New("field too long")

// ErrFieldInvalidChars is returned when a field contains disallowed characters.
var ErrFieldInvalidChars = errors.New("field contains invalid characters")

// ValidateLocationField trims the input, enforces length bounds (minLen,
// maxLen in runes), and restricts to allowed characters: letters (Unicode),
// digits, space, comma, hyphen, apostrophe. Used for both city and country
// inputs. Normalization (e.g. lowercase) is left to the service layer.
func ValidateLocationField(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrFieldEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrFieldTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrFieldTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrFieldInvalidChars
		}
	}
	return s, nil
}

// ValidateQuery trims the optional news search term and enforces only a
// maximum length; an empty query is valid and means "general headlines".
func ValidateQuery(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	if maxLen > 0 && len([]rune(s)) > maxLen {
		return "", ErrFieldTooLong
	}
	return s, nil
}

// isAllowedLocationRune returns true for letters (Unicode), digits, space,
// comma, hyphen, apostrophe.
func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'':
		return true
	}
	return false
}
