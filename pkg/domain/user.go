package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents the account.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	FirstName        *string
	LastName         *string
	MobileNumber     *string
	AuthProvider     *string
	ProviderID       *string
	ProfilePicture   *string
	TempPasswordHash *string
	OTPExpiration    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPendingOTP returns true if a reset code was issued and has not expired at now.
func (u *User) HasPendingOTP(now time.Time) bool {
	if u.TempPasswordHash == nil || *u.TempPasswordHash == "" || u.OTPExpiration == nil {
		return false
	}
	return now.Before(*u.OTPExpiration)
}

// Summary returns the public view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID.String(),
		Email:          u.Email,
		FirstName:      deref(u.FirstName),
		LastName:       deref(u.LastName),
		MobileNumber:   deref(u.MobileNumber),
		AuthProvider:   deref(u.AuthProvider),
		ProfilePicture: deref(u.ProfilePicture),
	}
}

// UserSummary is the user shape returned to clients and kept in the session.
type UserSummary struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	MobileNumber   string `json:"mobile_number,omitempty"`
	AuthProvider   string `json:"auth_provider,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// UserUpdate is a partial update of a user record. Nil slots are left untouched.
// ClearOTP unsets the pending reset code and its expiration.
type UserUpdate struct {
	Email            *string
	PasswordHash     *string
	FirstName        *string
	LastName         *string
	MobileNumber     *string
	AuthProvider     *string
	ProviderID       *string
	ProfilePicture   *string
	TempPasswordHash *string
	OTPExpiration    *time.Time
	ClearOTP         bool
}

// IsEmpty reports whether the update carries no changes.
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.PasswordHash == nil && u.FirstName == nil && u.LastName == nil &&
		u.MobileNumber == nil && u.AuthProvider == nil && u.ProviderID == nil &&
		u.ProfilePicture == nil && u.TempPasswordHash == nil && u.OTPExpiration == nil && !u.ClearOTP
}

// Apply applies the update to u in place. Stores without native partial
// updates use it to share the same semantics.
func (u UserUpdate) Apply(user *User) {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.FirstName != nil {
		user.FirstName = StringPtr(*u.FirstName)
	}
	if u.LastName != nil {
		user.LastName = StringPtr(*u.LastName)
	}
	if u.MobileNumber != nil {
		user.MobileNumber = StringPtr(*u.MobileNumber)
	}
	if u.AuthProvider != nil {
		user.AuthProvider = StringPtr(*u.AuthProvider)
	}
	if u.ProviderID != nil {
		user.ProviderID = StringPtr(*u.ProviderID)
	}
	if u.ProfilePicture != nil {
		user.ProfilePicture = StringPtr(*u.ProfilePicture)
	}
	if u.TempPasswordHash != nil {
		user.TempPasswordHash = StringPtr(*u.TempPasswordHash)
	}
	if u.OTPExpiration != nil {
		t := *u.OTPExpiration
		user.OTPExpiration = &t
	}
	if u.ClearOTP {
		user.TempPasswordHash = nil
		user.OTPExpiration = nil
	}
}

// Identity providers
const (
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
	ProviderFacebook = "facebook"
)

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
