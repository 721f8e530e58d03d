package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository"
)

// DefaultOTPTTL is how long a reset code stays valid.
const DefaultOTPTTL = 15 * time.Minute

// OTPConfig holds reset code configuration.
type OTPConfig struct {
	// Pepper keys the stored code hash.
	Pepper []byte
	TTL    time.Duration
}

// OTPService issues and checks the 4-digit password reset codes. Only a
// keyed hash of a code is stored, next to its expiry.
type OTPService struct {
	users  repository.UserStore
	config OTPConfig
	now    func() time.Time
}

// NewOTPService creates a new OTP service.
func NewOTPService(users repository.UserStore, config OTPConfig) *OTPService {
	if config.TTL <= 0 {
		config.TTL = DefaultOTPTTL
	}
	return &OTPService{users: users, config: config, now: time.Now}
}

// Generate creates a fresh code for email and stores its hash, replacing
// any pending one. The plaintext is returned for delivery only.
func (s *OTPService) Generate(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := newResetCode(s.now())
	if err != nil {
		return "", err
	}

	hash := s.hash(code)
	expires := s.now().Add(s.config.TTL)
	if _, err := s.users.Update(ctx, user.ID, domain.UserUpdate{
		TempPasswordHash: &hash,
		OTPExpiration:    &expires,
	}); err != nil {
		return "", fmt.Errorf("store reset code: %w", err)
	}
	return code, nil
}

// Verify reports whether candidate matches the pending, unexpired code for
// email. It never consumes the code.
func (s *OTPService) Verify(ctx context.Context, email, candidate string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !user.HasPendingOTP(s.now()) {
		return false, nil
	}
	return hmac.Equal([]byte(*user.TempPasswordHash), []byte(s.hash(candidate))), nil
}

// Lookup finds the user holding candidate as a pending code. The code alone
// identifies the account. Unknown or expired codes yield domain.ErrInvalidOTP.
func (s *OTPService) Lookup(ctx context.Context, candidate string) (*domain.User, error) {
	if candidate == "" {
		return nil, domain.ErrInvalidOTP
	}
	now := s.now()
	user, err := s.users.GetByTempPasswordHash(ctx, s.hash(candidate), now)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if !user.HasPendingOTP(now) {
		return nil, domain.ErrInvalidOTP
	}
	return user, nil
}

// Consume clears the pending code for userID.
func (s *OTPService) Consume(ctx context.Context, userID uuid.UUID) error {
	_, err := s.users.Update(ctx, userID, domain.UserUpdate{ClearOTP: true})
	return err
}

// hash returns the hex HMAC-SHA256 of code under the pepper.
func (s *OTPService) hash(code string) string {
	mac := hmac.New(sha256.New, s.config.Pepper)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

var otpSecretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newResetCode derives a code in [1000, 9999] from an HOTP value over a
// fresh random secret.
func newResetCode(now time.Time) (string, error) {
	secret := make([]byte, 20)
	if _, err := randomBytes(secret); err != nil {
		return "", err
	}

	value, err := hotp.GenerateCodeCustom(otpSecretEncoding.EncodeToString(secret), uint64(now.UnixNano()), hotp.ValidateOpts{
		Digits:    otp.DigitsEight,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("derive reset code: %w", err)
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return "", fmt.Errorf("derive reset code: %w", err)
	}
	return strconv.Itoa(1000 + n%9000), nil
}
