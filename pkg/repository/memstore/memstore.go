// Package memstore implements the repository contracts in process memory.
// It backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
)

// Users is an in-memory user store.
type Users struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{users: make(map[uuid.UUID]domain.User)}
}

// Create stores a copy of user. Emails are unique.
func (s *Users) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

// GetByID returns a copy of the user with id.
func (s *Users) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := copyUser(&u)
	return &out, nil
}

// GetByEmail returns a copy of the user with email.
func (s *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(func(u *domain.User) bool { return u.Email == email })
}

// GetByTempPasswordHash returns a copy of the user holding hash unexpired at now.
func (s *Users) GetByTempPasswordHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	return s.first(func(u *domain.User) bool {
		return u.HasPendingOTP(now) && *u.TempPasswordHash == hash
	})
}

// Update applies upd and returns a copy of the stored user.
func (s *Users) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *upd.Email {
				return nil, domain.ErrUserAlreadyExists
			}
		}
	}
	if !upd.IsEmpty() {
		upd.Apply(&u)
		u.UpdatedAt = time.Now()
		s.users[id] = u
	}
	out := copyUser(&u)
	return &out, nil
}

// Len returns the number of stored users.
func (s *Users) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Users) first(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(&u) {
			out := copyUser(&u)
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// copyUser returns a deep copy so callers cannot mutate stored state.
func copyUser(u *domain.User) domain.User {
	out := *u
	out.FirstName = clonePtr(u.FirstName)
	out.LastName = clonePtr(u.LastName)
	out.MobileNumber = clonePtr(u.MobileNumber)
	out.AuthProvider = clonePtr(u.AuthProvider)
	out.ProviderID = clonePtr(u.ProviderID)
	out.ProfilePicture = clonePtr(u.ProfilePicture)
	out.TempPasswordHash = clonePtr(u.TempPasswordHash)
	out.OTPExpiration = clonePtr(u.OTPExpiration)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Documents is an in-memory document store.
type Documents struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]domain.Document
}

// NewDocuments creates an empty document store.
func NewDocuments() *Documents {
	return &Documents{docs: make(map[uuid.UUID]domain.Document)}
}

// Create stores a copy of doc.
func (s *Documents) Create(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = *doc
	return nil
}

// Get returns the document when owner owns it.
func (s *Documents) Get(ctx context.Context, owner, id uuid.UUID) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok || d.UserID != owner {
		return nil, domain.ErrDocumentNotFound
	}
	return &d, nil
}

// List returns the owner's documents, newest first.
func (s *Documents) List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]*domain.Document, error) {
	return s.filter(owner, page, func(*domain.Document) bool { return true }), nil
}

// ListByType returns the owner's documents of one scan type, newest first.
func (s *Documents) ListByType(ctx context.Context, owner uuid.UUID, scanType domain.ScanType, page domain.Page) ([]*domain.Document, error) {
	return s.filter(owner, page, func(d *domain.Document) bool { return d.ScanType == scanType }), nil
}

// Search matches q case-insensitively against the searchable fields.
func (s *Documents) Search(ctx context.Context, owner uuid.UUID, q string, page domain.Page) ([]*domain.Document, error) {
	needle := strings.ToLower(q)
	return s.filter(owner, page, func(d *domain.Document) bool {
		for _, v := range searchable(d) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	}), nil
}

// Update applies upd to a document owned by owner.
func (s *Documents) Update(ctx context.Context, owner, id uuid.UUID, upd domain.DocumentUpdate) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.UserID != owner {
		return nil, domain.ErrDocumentNotFound
	}
	upd.Apply(&d)
	d.UpdatedAt = time.Now()
	s.docs[id] = d
	return &d, nil
}

// Delete removes a document owned by owner.
func (s *Documents) Delete(ctx context.Context, owner, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.UserID != owner {
		return domain.ErrDocumentNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *Documents) filter(owner uuid.UUID, page domain.Page, keep func(*domain.Document) bool) []*domain.Document {
	page = page.Normalize()

	s.mu.RLock()
	matched := make([]*domain.Document, 0)
	for _, d := range s.docs {
		d := d
		if d.UserID == owner && keep(&d) {
			matched = append(matched, &d)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if page.Skip >= len(matched) {
		return []*domain.Document{}
	}
	end := page.Skip + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[page.Skip:end]
}

// searchable returns the values of domain.SearchFields for d.
func searchable(d *domain.Document) []string {
	out := []string{d.DocumentName}
	for _, p := range []*string{d.Name, d.BookName, d.AuthorName, d.CompanyName} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
