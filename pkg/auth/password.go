package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository"
)

const (
	maxNameLength   = 100
	maxMobileLength = 32
)

// Mailer delivers password reset codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// RegisterInput is the payload of a local sign-up.
type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	MobileNumber string
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Email        *string
	FirstName    *string
	LastName     *string
	MobileNumber *string
}

// IsEmpty reports whether no field was supplied.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.MobileNumber == nil
}

// PasswordService handles local credentials: sign-up, sign-in, OTP based
// password reset and profile edits.
type PasswordService struct {
	users                 repository.UserStore
	otp                   *OTPService
	mailer                Mailer
	policy                *PasswordPolicy
	strictEmailValidation bool
	blockDisposableEmail  bool
	logger                *slog.Logger
}

// PasswordServiceOptions configures NewPasswordService.
type PasswordServiceOptions struct {
	Policy                *PasswordPolicy
	StrictEmailValidation bool
	BlockDisposableEmail  bool
	Logger                *slog.Logger
}

// NewPasswordService creates a new password service.
func NewPasswordService(users repository.UserStore, otp *OTPService, mailer Mailer, opts PasswordServiceOptions) *PasswordService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordService{
		users:                 users,
		otp:                   otp,
		mailer:                mailer,
		policy:                opts.Policy,
		strictEmailValidation: opts.StrictEmailValidation,
		blockDisposableEmail:  opts.BlockDisposableEmail,
		logger:                logger,
	}
}

// Register creates a new user with password credentials.
func (s *PasswordService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := ValidateEmail(in.Email, s.strictEmailValidation, s.blockDisposableEmail); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	if s.policy != nil {
		if err := s.policy.ValidatePassword(in.Password); err != nil {
			return nil, err
		}
	}

	firstName, lastName, mobile, err := cleanProfileFields(in.FirstName, in.LastName, in.MobileNumber)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    domain.StringPtr(firstName),
		LastName:     domain.StringPtr(lastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mobile != "" {
		user.MobileNumber = domain.StringPtr(mobile)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies email and password. Unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PasswordService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// RequestPasswordReset issues a reset code for email and mails it.
// domain.ErrUserNotFound is returned for unknown addresses so callers can
// decide whether to reveal that.
func (s *PasswordService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	code, err := s.otp.Generate(ctx, email)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	s.logger.Info("password reset code issued", "email", email)
	return nil
}

// ResetPassword sets a new password for the account holding code. The code
// is cleared in the same update, and also when hashing the new password fails.
func (s *PasswordService) ResetPassword(ctx context.Context, code, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return domain.ErrPasswordMismatch
	}
	if s.policy != nil {
		if err := s.policy.ValidatePassword(newPassword); err != nil {
			return err
		}
	}

	user, err := s.otp.Lookup(ctx, code)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		if cerr := s.otp.Consume(ctx, user.ID); cerr != nil {
			s.logger.Error("failed to clear reset code", "user_id", user.ID, "error", cerr)
		}
		return err
	}

	if _, err := s.users.Update(ctx, user.ID, domain.UserUpdate{
		PasswordHash: &hash,
		ClearOTP:     true,
	}); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// UpdateProfile applies upd to the user. It refuses empty updates and
// updates that change nothing.
func (s *PasswordService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.User, error) {
	if upd.IsEmpty() {
		return nil, domain.ErrNoUpdateFields
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var patch domain.UserUpdate
	if upd.Email != nil {
		if err := ValidateEmail(*upd.Email, s.strictEmailValidation, s.blockDisposableEmail); err != nil {
			return nil, err
		}
		email := NormalizeEmail(*upd.Email)
		if email != user.Email {
			other, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, domain.ErrUserAlreadyExists
			case err != nil && !errors.Is(err, domain.ErrUserNotFound):
				return nil, err
			}
			patch.Email = &email
		}
	}

	first, last, mobile, err := cleanProfileFields(deref(upd.FirstName), deref(upd.LastName), deref(upd.MobileNumber))
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil && !equalPtr(user.FirstName, first) {
		patch.FirstName = &first
	}
	if upd.LastName != nil && !equalPtr(user.LastName, last) {
		patch.LastName = &last
	}
	if upd.MobileNumber != nil && !equalPtr(user.MobileNumber, mobile) {
		patch.MobileNumber = &mobile
	}

	if patch.IsEmpty() {
		return nil, domain.ErrNoChanges
	}
	return s.users.Update(ctx, userID, patch)
}

func cleanProfileFields(firstName, lastName, mobile string) (string, string, string, error) {
	firstName = SanitizeName(firstName)
	lastName = SanitizeName(lastName)
	mobile = SanitizeName(mobile)

	if err := ValidateStringLength("first_name", firstName, 0, maxNameLength); err != nil {
		return "", "", "", err
	}
	if err := ValidateStringLength("last_name", lastName, 0, maxNameLength); err != nil {
		return "", "", "", err
	}
	if err := ValidateStringLength("mobile_number", mobile, 0, maxMobileLength); err != nil {
		return "", "", "", err
	}
	return firstName, lastName, mobile, nil
}

func equalPtr(p *string, v string) bool {
	return p != nil && *p == v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
