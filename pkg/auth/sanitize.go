package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/scanvault/pkg/domain"
)

// SanitizeName trims a name-like field and strips control characters.
// Output is JSON encoded, so no HTML escaping happens here.
func SanitizeName(name string) string {
	return strings.TrimSpace(removeControlChars(name))
}

// ValidateStringLength checks that value has between min and max runes.
// A zero bound is not checked.
func ValidateStringLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if min > 0 && n < min {
		return domain.NewValidationError(domain.ErrInvalidField, "%s must be at least %d characters long", field, min)
	}
	if max > 0 && n > max {
		return domain.NewValidationError(domain.ErrInvalidField, "%s must be at most %d characters long", field, max)
	}
	return nil
}

func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
