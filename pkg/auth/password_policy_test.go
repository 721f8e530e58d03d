package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/scanvault/internal/config"
	"github.com/tendant/scanvault/pkg/domain"
)

func TestPasswordPolicy_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		policy   PasswordPolicy
		password string
		wantMsg  string
	}{
		{name: "no requirements", policy: PasswordPolicy{}, password: "a"},
		{name: "empty always rejected", policy: PasswordPolicy{}, password: "", wantMsg: "password is required"},
		{name: "min length ok", policy: PasswordPolicy{MinLength: 8}, password: "12345678"},
		{name: "min length short", policy: PasswordPolicy{MinLength: 8}, password: "1234567", wantMsg: "password must be at least 8 characters long"},
		{name: "uppercase ok", policy: PasswordPolicy{RequireUppercase: true}, password: "Password"},
		{name: "uppercase missing", policy: PasswordPolicy{RequireUppercase: true}, password: "password", wantMsg: "password must contain at least one uppercase letter"},
		{name: "lowercase missing", policy: PasswordPolicy{RequireLowercase: true}, password: "PASSWORD", wantMsg: "password must contain at least one lowercase letter"},
		{name: "number missing", policy: PasswordPolicy{RequireNumber: true}, password: "Password", wantMsg: "password must contain at least one number"},
		{name: "special ok", policy: PasswordPolicy{RequireSpecial: true}, password: "pass!word"},
		{name: "space is not special", policy: PasswordPolicy{RequireSpecial: true}, password: "pass word", wantMsg: "password must contain at least one special character"},
		{
			name:     "all requirements",
			policy:   PasswordPolicy{MinLength: 10, RequireUppercase: true, RequireLowercase: true, RequireNumber: true, RequireSpecial: true},
			password: "Str0ng!Passw0rd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.ValidatePassword(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrWeakPassword)
			assert.EqualError(t, err, tt.wantMsg)

			var vErr *domain.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestNewPasswordPolicy(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordPolicyConfig{
		MinLength:        12,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	})

	assert.Equal(t, &PasswordPolicy{
		MinLength:        12,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}, policy)
}

func TestPasswordPolicy_Requirements(t *testing.T) {
	assert.Equal(t, "No password requirements", (&PasswordPolicy{}).Requirements())
	assert.Equal(t, "Password must contain at least 8 characters", (&PasswordPolicy{MinLength: 8}).Requirements())
	assert.Equal(t,
		"Password must contain at least 12 characters, one uppercase letter, one lowercase letter, one number, one special character",
		(&PasswordPolicy{MinLength: 12, RequireUppercase: true, RequireLowercase: true, RequireNumber: true, RequireSpecial: true}).Requirements(),
	)
}
