// Package repository defines the persistence contracts used by the auth and
// document services and their Postgres implementation. Mongo and in-memory
// implementations live in the mongostore and memstore subpackages.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
)

// UserStore persists user accounts.
//
// Lookups that find nothing return domain.ErrUserNotFound.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByTempPasswordHash finds the user holding the given OTP hash
	// unexpired at now.
	GetByTempPasswordHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)
	// Update applies the non-nil slots of upd and returns the stored user.
	Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error)
}

// DocumentStore persists scanned documents. Every read and write is scoped
// to the owning user; a document owned by someone else behaves as absent
// and yields domain.ErrDocumentNotFound.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, owner, id uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]*domain.Document, error)
	ListByType(ctx context.Context, owner uuid.UUID, scanType domain.ScanType, page domain.Page) ([]*domain.Document, error)
	Search(ctx context.Context, owner uuid.UUID, query string, page domain.Page) ([]*domain.Document, error)
	Update(ctx context.Context, owner, id uuid.UUID, upd domain.DocumentUpdate) (*domain.Document, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

var (
	_ UserStore     = (*UsersRepository)(nil)
	_ DocumentStore = (*DocumentsRepository)(nil)
)
