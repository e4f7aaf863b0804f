package lending

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ClassificationID identifies the book an order's statistics roll up into,
// e.g. "S01": one letter followed by two digits.
type ClassificationID string

// ParseClassificationID validates a classification code. Case is kept, so "s01"
// and "S01" are separate classifications.
func ParseClassificationID(s string) (ClassificationID, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) != 3 {
		return "", fmt.Errorf("%w: %q must be 3 characters", ErrInvalidClassificationID, s)
	}
	for i, r := range []rune(s) {
		if i == 0 {
			if !unicode.IsLetter(r) {
				return "", fmt.Errorf("%w: %q must start with a letter", ErrInvalidClassificationID, s)
			}
			continue
		}
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q must end with two digits", ErrInvalidClassificationID, s)
		}
	}
	return ClassificationID(s), nil
}

func (id ClassificationID) String() string { return string(id) }
