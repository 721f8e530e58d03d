package auth

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tendant/scanvault/internal/config"
	"github.com/tendant/scanvault/pkg/domain"
)

// PasswordPolicy defines password complexity requirements.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns a validation error wrapping domain.ErrWeakPassword
// naming the first unmet requirement.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	switch {
	case password == "":
		return weakPassword("password is required")
	case p.MinLength > 0 && len(password) < p.MinLength:
		return weakPassword("password must be at least %d characters long", p.MinLength)
	case p.RequireUppercase && !containsRune(password, unicode.IsUpper):
		return weakPassword("password must contain at least one uppercase letter")
	case p.RequireLowercase && !containsRune(password, unicode.IsLower):
		return weakPassword("password must contain at least one lowercase letter")
	case p.RequireNumber && !containsRune(password, unicode.IsDigit):
		return weakPassword("password must contain at least one number")
	case p.RequireSpecial && !containsRune(password, isSpecial):
		return weakPassword("password must contain at least one special character")
	}
	return nil
}

// Requirements returns a human-readable description of the policy.
func (p *PasswordPolicy) Requirements() string {
	var reqs []string
	if p.MinLength > 0 {
		reqs = append(reqs, "at least "+strconv.Itoa(p.MinLength)+" characters")
	}
	if p.RequireUppercase {
		reqs = append(reqs, "one uppercase letter")
	}
	if p.RequireLowercase {
		reqs = append(reqs, "one lowercase letter")
	}
	if p.RequireNumber {
		reqs = append(reqs, "one number")
	}
	if p.RequireSpecial {
		reqs = append(reqs, "one special character")
	}
	if len(reqs) == 0 {
		return "No password requirements"
	}
	return "Password must contain " + strings.Join(reqs, ", ")
}

func weakPassword(format string, args ...any) error {
	return domain.NewValidationError(domain.ErrWeakPassword, format, args...)
}

func containsRune(s string, pred func(rune) bool) bool {
	return strings.IndexFunc(s, pred) >= 0
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
