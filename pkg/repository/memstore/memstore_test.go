package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository"
)

var (
	_ repository.UserStore     = (*Users)(nil)
	_ repository.DocumentStore = (*Documents)(nil)
)

func TestUsers_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()

	require.NoError(t, s.Create(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"}))
	err := s.Create(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	b := &domain.User{ID: uuid.New(), Email: "b@example.com"}
	require.NoError(t, s.Create(ctx, b))
	_, err = s.Update(ctx, b.ID, domain.UserUpdate{Email: domain.StringPtr("a@example.com")})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUsers_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	u := &domain.User{ID: uuid.New(), Email: "a@example.com", FirstName: domain.StringPtr("Ada")}
	require.NoError(t, s.Create(ctx, u))

	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	*got.FirstName = "Mutated"

	again, err := s.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", *again.FirstName)
}

func TestUsers_TempPasswordHashLookup(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	u := &domain.User{ID: uuid.New(), Email: "a@example.com"}
	require.NoError(t, s.Create(ctx, u))

	_, err := s.GetByTempPasswordHash(ctx, "h", time.Now())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	exp := time.Now().Add(time.Minute)
	_, err = s.Update(ctx, u.ID, domain.UserUpdate{TempPasswordHash: domain.StringPtr("h"), OTPExpiration: &exp})
	require.NoError(t, err)

	got, err := s.GetByTempPasswordHash(ctx, "h", time.Now())
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetByTempPasswordHash(ctx, "h", exp.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrUserNotFound, "expired codes do not match")

	_, err = s.Update(ctx, u.ID, domain.UserUpdate{ClearOTP: true})
	require.NoError(t, err)
	_, err = s.GetByTempPasswordHash(ctx, "h", time.Now())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDocuments_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	alice, bob := uuid.New(), uuid.New()

	doc := &domain.Document{ID: uuid.New(), UserID: alice, DocumentName: "passport", ScanType: domain.ScanTypeID, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, doc))

	_, err := s.Get(ctx, bob, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = s.Update(ctx, bob, doc.ID, domain.DocumentUpdate{DocumentName: domain.StringPtr("stolen")})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.ErrorIs(t, s.Delete(ctx, bob, doc.ID), domain.ErrDocumentNotFound)

	list, err := s.List(ctx, bob, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := s.Get(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "passport", got.DocumentName)
}

func TestDocuments_OrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	owner := uuid.New()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, &domain.Document{
			ID:           uuid.New(),
			UserID:       owner,
			DocumentName: string(rune('a' + i)),
			ScanType:     domain.ScanTypeDocument,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := s.List(ctx, owner, domain.Page{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].DocumentName)
	assert.Equal(t, "c", page[1].DocumentName)

	page, err = s.List(ctx, owner, domain.Page{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestDocuments_SearchAndType(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	owner := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.Document{ID: uuid.New(), UserID: owner, DocumentName: "scan-1", ScanType: domain.ScanTypeBook, AuthorName: domain.StringPtr("Frank Herbert")}))
	require.NoError(t, s.Create(ctx, &domain.Document{ID: uuid.New(), UserID: owner, DocumentName: "scan-2", ScanType: domain.ScanTypeBusiness, CompanyName: domain.StringPtr("Acme")}))

	found, err := s.Search(ctx, owner, "HERBERT", domain.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "scan-1", found[0].DocumentName)

	found, err = s.Search(ctx, owner, "scan", domain.Page{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	byType, err := s.ListByType(ctx, owner, domain.ScanTypeBusiness, domain.Page{})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "scan-2", byType[0].DocumentName)
}
