package auth

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/tendant/scanvault/pkg/domain"
)

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

const maxEmailLength = 254 // RFC 5321

// ValidateEmail validates an email address for format and length. Failures
// are validation errors wrapping domain.ErrInvalidEmail.
func ValidateEmail(email string, strict bool, blockDisposable bool) error {
	if strings.TrimSpace(email) == "" {
		return invalidEmail("email address is required")
	}
	if len(email) > maxEmailLength {
		return invalidEmail("email address is too long (max %d characters)", maxEmailLength)
	}

	normalized := NormalizeEmail(email)
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return invalidEmail("invalid email address format")
	}

	if strict && !emailRegex.MatchString(addr.Address) {
		return invalidEmail("invalid email address format")
	}

	if blockDisposable && disposableDomains[emailDomain(addr.Address)] {
		return invalidEmail("disposable email addresses are not allowed")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	_, host, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return host
}

func invalidEmail(format string, args ...any) error {
	return domain.NewValidationError(domain.ErrInvalidEmail, format, args...)
}
