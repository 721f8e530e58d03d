package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository"
)

// Reconciler maps a provider profile onto a local account, keyed by email.
type Reconciler struct {
	users repository.UserStore
}

// NewReconciler creates a new reconciler.
func NewReconciler(users repository.UserStore) *Reconciler {
	return &Reconciler{users: users}
}

// Upsert creates the account for p.Email or refreshes its provider data.
// Existing accounts keep their password and any field the provider did not
// report. Repeated calls with the same profile converge on one record.
func (r *Reconciler) Upsert(ctx context.Context, provider string, p *Profile) (*domain.User, error) {
	if p == nil || p.Email == "" {
		return nil, domain.ErrMissingEmail
	}
	email := NormalizeEmail(p.Email)

	existing, err := r.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return r.refresh(ctx, existing, provider, p)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	user, err := r.create(ctx, email, provider, p)
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		// Lost a race with a concurrent login for the same email.
		existing, err := r.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return r.refresh(ctx, existing, provider, p)
	}
	return user, err
}

func (r *Reconciler) create(ctx context.Context, email, provider string, p *Profile) (*domain.User, error) {
	hash, err := UnusablePasswordHash()
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    domain.StringPtr(SanitizeName(p.FirstName)),
		LastName:     domain.StringPtr(SanitizeName(p.LastName)),
		AuthProvider: domain.StringPtr(provider),
		ProviderID:   domain.StringPtr(p.ExternalID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Picture != "" {
		user.ProfilePicture = domain.StringPtr(p.Picture)
	}

	if err := r.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Reconciler) refresh(ctx context.Context, user *domain.User, provider string, p *Profile) (*domain.User, error) {
	upd := domain.UserUpdate{
		FirstName:    domain.StringPtr(SanitizeName(p.FirstName)),
		LastName:     domain.StringPtr(SanitizeName(p.LastName)),
		AuthProvider: domain.StringPtr(provider),
		ProviderID:   domain.StringPtr(p.ExternalID),
	}
	if p.Picture != "" {
		upd.ProfilePicture = domain.StringPtr(p.Picture)
	}
	return r.users.Update(ctx, user.ID, upd)
}
