// Package documents implements the per-user scanned document store.
package documents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository"
)

// Input is the payload for creating a document. The owner always comes from
// the caller's identity, never from the payload.
type Input struct {
	DocumentName string          `json:"document_name"`
	ScanType     domain.ScanType `json:"scan_type"`
	IsFavorite   bool            `json:"is_favorite"`

	Name         *string `json:"name,omitempty"`
	Profession   *string `json:"profession,omitempty"`
	Email        *string `json:"email,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty"`
	Address      *string `json:"address,omitempty"`

	CompanyName *string `json:"company_name,omitempty"`
	Website     *string `json:"website,omitempty"`

	ISBNNo        *int64  `json:"isbn_no,omitempty"`
	BookName      *string `json:"book_name,omitempty"`
	AuthorName    *string `json:"author_name,omitempty"`
	Publication   *string `json:"publication,omitempty"`
	NumberOfPages *int    `json:"number_of_pages,omitempty"`
	Subject       *string `json:"subject,omitempty"`

	Summary *string `json:"summary,omitempty"`
}

// Service exposes owner-scoped document operations.
type Service struct {
	store repository.DocumentStore
	now   func() time.Time
}

// NewService creates a new document service.
func NewService(store repository.DocumentStore) *Service {
	return &Service{store: store, now: time.Now}
}

// ParseID parses a document id from a path segment.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// Create stores a new document for owner.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input) (*domain.Document, error) {
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidField, "document_name is required")
	}
	if err := validateScanType(in.ScanType); err != nil {
		return nil, err
	}
	if err := validateContactEmail(in.Email); err != nil {
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:            uuid.New(),
		UserID:        owner,
		DocumentName:  name,
		ScanType:      in.ScanType,
		IsFavorite:    in.IsFavorite,
		CreatedAt:     now,
		UpdatedAt:     now,
		Name:          in.Name,
		Profession:    in.Profession,
		Email:         in.Email,
		MobileNumber:  in.MobileNumber,
		Address:       in.Address,
		CompanyName:   in.CompanyName,
		Website:       in.Website,
		ISBNNo:        in.ISBNNo,
		BookName:      in.BookName,
		AuthorName:    in.AuthorName,
		Publication:   in.Publication,
		NumberOfPages: in.NumberOfPages,
		Subject:       in.Subject,
		Summary:       in.Summary,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns one of owner's documents.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*domain.Document, error) {
	return s.store.Get(ctx, owner, id)
}

// List returns a page of owner's documents, newest first.
func (s *Service) List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]*domain.Document, error) {
	return s.store.List(ctx, owner, page.Normalize())
}

// ListByType returns a page of owner's documents of scanType, newest first.
func (s *Service) ListByType(ctx context.Context, owner uuid.UUID, scanType domain.ScanType, page domain.Page) ([]*domain.Document, error) {
	if err := validateScanType(scanType); err != nil {
		return nil, err
	}
	return s.store.ListByType(ctx, owner, scanType, page.Normalize())
}

// Search returns owner's documents whose searchable fields contain query,
// ignoring case. An empty query lists everything.
func (s *Service) Search(ctx context.Context, owner uuid.UUID, query string, page domain.Page) ([]*domain.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, owner, page)
	}
	return s.store.Search(ctx, owner, query, page.Normalize())
}

// Update applies upd to one of owner's documents.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, upd domain.DocumentUpdate) (*domain.Document, error) {
	if upd.IsEmpty() {
		return nil, domain.ErrNoUpdateFields
	}
	if upd.DocumentName != nil && strings.TrimSpace(*upd.DocumentName) == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidField, "document_name must not be empty")
	}
	if upd.ScanType != nil {
		if err := validateScanType(*upd.ScanType); err != nil {
			return nil, err
		}
	}
	if err := validateContactEmail(upd.Email); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, owner, id, upd)
}

// Delete removes one of owner's documents.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return s.store.Delete(ctx, owner, id)
}

var scanTypeList = func() string {
	names := make([]string, len(domain.ScanTypes))
	for i, t := range domain.ScanTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}()

func validateScanType(t domain.ScanType) error {
	if !t.Valid() {
		return domain.NewValidationError(domain.ErrInvalidScanType, "invalid scan type, must be one of: %s", scanTypeList)
	}
	return nil
}

func validateContactEmail(email *string) error {
	if email == nil || *email == "" {
		return nil
	}
	return auth.ValidateEmail(*email, false, false)
}
