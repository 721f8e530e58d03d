package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/scanvault/pkg/domain"
)

const userColumns = `id, email, password_hash, first_name, last_name, mobile_number,
	auth_provider, provider_id, profile_picture, temp_password_hash, otp_expiration,
	created_at, updated_at`

// UsersRepository handles user persistence.
type UsersRepository struct {
	db Querier
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db Querier) *UsersRepository {
	return &UsersRepository{db: db}
}

// Create creates a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.MobileNumber,
		user.AuthProvider, user.ProviderID, user.ProfilePicture, user.TempPasswordHash, user.OTPExpiration,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrUserAlreadyExists
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByTempPasswordHash retrieves the user holding a reset code hash that is
// still valid at now.
func (r *UsersRepository) GetByTempPasswordHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE temp_password_hash = $1 AND otp_expiration > $2 LIMIT 1`, hash, now)
}

// Update applies a partial update and returns the stored row.
func (r *UsersRepository) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	if upd.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set, args := buildUserSet(upd, time.Now())
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, set, len(args), userColumns)

	user, err := r.getOne(ctx, query, args...)
	if isUniqueViolation(err) {
		return nil, domain.ErrUserAlreadyExists
	}
	return user, err
}

func (r *UsersRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.MobileNumber,
		&user.AuthProvider, &user.ProviderID, &user.ProfilePicture, &user.TempPasswordHash, &user.OTPExpiration,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// buildUserSet renders the SET clause for the non-nil slots of upd.
// Placeholders are numbered from $1; updated_at is always bumped.
func buildUserSet(upd domain.UserUpdate, now time.Time) (string, []any) {
	var (
		cols []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.MobileNumber != nil {
		add("mobile_number", *upd.MobileNumber)
	}
	if upd.AuthProvider != nil {
		add("auth_provider", *upd.AuthProvider)
	}
	if upd.ProviderID != nil {
		add("provider_id", *upd.ProviderID)
	}
	if upd.ProfilePicture != nil {
		add("profile_picture", *upd.ProfilePicture)
	}
	if upd.ClearOTP {
		cols = append(cols, "temp_password_hash = NULL", "otp_expiration = NULL")
	} else {
		if upd.TempPasswordHash != nil {
			add("temp_password_hash", *upd.TempPasswordHash)
		}
		if upd.OTPExpiration != nil {
			add("otp_expiration", *upd.OTPExpiration)
		}
	}
	add("updated_at", now)

	return strings.Join(cols, ", "), args
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
