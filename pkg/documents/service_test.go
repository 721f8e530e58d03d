package documents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/repository/memstore"
)

func newTestService() *Service {
	svc := NewService(memstore.NewDocuments())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return svc
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	owner := uuid.New()

	doc, err := svc.Create(ctx, owner, Input{
		DocumentName: "  Passport ",
		ScanType:     domain.ScanTypeID,
		Name:         domain.StringPtr("Ada Lovelace"),
		Email:        domain.StringPtr("ada@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, owner, doc.UserID)
	assert.Equal(t, "Passport", doc.DocumentName)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	got, err := svc.Get(ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Ada Lovelace", *got.Name)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{name: "missing name", in: Input{ScanType: domain.ScanTypeBook}, wantErr: domain.ErrInvalidField},
		{name: "bad scan type", in: Input{DocumentName: "x", ScanType: "receipt"}, wantErr: domain.ErrInvalidScanType},
		{name: "bad contact email", in: Input{DocumentName: "x", ScanType: domain.ScanTypeID, Email: domain.StringPtr("nope")}, wantErr: domain.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	alice, bob := uuid.New(), uuid.New()

	doc, err := svc.Create(ctx, alice, Input{DocumentName: "Alice card", ScanType: domain.ScanTypeBusiness})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = svc.Update(ctx, bob, doc.ID, domain.DocumentUpdate{IsFavorite: boolPtr(true)})
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, bob, doc.ID), domain.ErrDocumentNotFound)

	list, err := svc.List(ctx, bob, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Get(ctx, alice, doc.ID)
	assert.NoError(t, err)
}

func TestService_ListPagingAndType(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	owner := uuid.New()

	for i := 0; i < 12; i++ {
		scanType := domain.ScanTypeDocument
		if i%3 == 0 {
			scanType = domain.ScanTypeBook
		}
		_, err := svc.Create(ctx, owner, Input{DocumentName: fmt.Sprintf("doc-%02d", i), ScanType: scanType})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, owner, domain.Page{})
	require.NoError(t, err)
	require.Len(t, first, domain.DefaultPageLimit)
	assert.Equal(t, "doc-11", first[0].DocumentName, "newest first")

	rest, err := svc.List(ctx, owner, domain.Page{Skip: 10, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "doc-00", rest[1].DocumentName)

	books, err := svc.ListByType(ctx, owner, domain.ScanTypeBook, domain.Page{})
	require.NoError(t, err)
	require.Len(t, books, 4)
	assert.Equal(t, "doc-09", books[0].DocumentName)
	for i := 1; i < len(books); i++ {
		assert.True(t, books[i-1].CreatedAt.After(books[i].CreatedAt))
	}

	_, err = svc.ListByType(ctx, owner, "selfie", domain.Page{})
	assert.ErrorIs(t, err, domain.ErrInvalidScanType)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	owner := uuid.New()

	inputs := []Input{
		{DocumentName: "Shelf scan", ScanType: domain.ScanTypeBook, BookName: domain.StringPtr("The Go Programming Language"), AuthorName: domain.StringPtr("Donovan")},
		{DocumentName: "Conference", ScanType: domain.ScanTypeBusiness, CompanyName: domain.StringPtr("GopherCon")},
		{DocumentName: "Receipt", ScanType: domain.ScanTypeDocument, Summary: domain.StringPtr("go karts")},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, uuid.New(), Input{DocumentName: "gopher", ScanType: domain.ScanTypeDocument})
	require.NoError(t, err)

	found, err := svc.Search(ctx, owner, "GO", domain.Page{})
	require.NoError(t, err)
	var names []string
	for _, d := range found {
		names = append(names, d.DocumentName)
	}
	assert.ElementsMatch(t, []string{"Shelf scan", "Conference"}, names, "summary is not searched")

	all, err := svc.Search(ctx, owner, "  ", domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	owner := uuid.New()
	doc, err := svc.Create(ctx, owner, Input{DocumentName: "Card", ScanType: domain.ScanTypeBusiness})
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, doc.ID, domain.DocumentUpdate{})
	assert.ErrorIs(t, err, domain.ErrNoUpdateFields)

	bad := domain.ScanType("poster")
	_, err = svc.Update(ctx, owner, doc.ID, domain.DocumentUpdate{ScanType: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidScanType)

	_, err = svc.Update(ctx, owner, doc.ID, domain.DocumentUpdate{DocumentName: domain.StringPtr(" ")})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	updated, err := svc.Update(ctx, owner, doc.ID, domain.DocumentUpdate{
		IsFavorite: boolPtr(true),
		Website:    domain.StringPtr("https://example.com"),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, "Card", updated.DocumentName)
	assert.Equal(t, "https://example.com", *updated.Website)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	owner := uuid.New()
	doc, err := svc.Create(ctx, owner, Input{DocumentName: "Old", ScanType: domain.ScanTypeDocument})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, doc.ID))
	_, err = svc.Get(ctx, owner, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, doc.ID), domain.ErrDocumentNotFound)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("64b7f0c2e4b0a1a2b3c4d5e6")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func boolPtr(b bool) *bool { return &b }
