package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
)

const documentColumns = `id, user_id, document_name, scan_type, is_favorite,
	name, profession, email, mobile_number, address, company_name, website,
	isbn_no, book_name, author_name, publication, number_of_pages, subject, summary,
	created_at, updated_at`

// DocumentsRepository handles document persistence.
type DocumentsRepository struct {
	db *sql.DB
}

// NewDocumentsRepository creates a new documents repository.
func NewDocumentsRepository(db *sql.DB) *DocumentsRepository {
	return &DocumentsRepository{db: db}
}

// Create creates a new document.
func (r *DocumentsRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := r.db.ExecContext(ctx, query, documentArgs(doc)...)
	return err
}

// Get retrieves a document owned by owner.
func (r *DocumentsRepository) Get(ctx context.Context, owner, id uuid.UUID) (*domain.Document, error) {
	return getDocument(ctx, r.db, `SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`, id, owner)
}

// List returns the owner's documents, newest first.
func (r *DocumentsRepository) List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]*domain.Document, error) {
	page = page.Normalize()
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`
	return r.list(ctx, query, owner, page.Skip, page.Limit)
}

// ListByType returns the owner's documents of one scan type, newest first.
func (r *DocumentsRepository) ListByType(ctx context.Context, owner uuid.UUID, scanType domain.ScanType, page domain.Page) ([]*domain.Document, error) {
	page = page.Normalize()
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1 AND scan_type = $2
		ORDER BY created_at DESC
		OFFSET $3 LIMIT $4
	`
	return r.list(ctx, query, owner, string(scanType), page.Skip, page.Limit)
}

// Search matches query case-insensitively against the searchable fields.
func (r *DocumentsRepository) Search(ctx context.Context, owner uuid.UUID, q string, page domain.Page) ([]*domain.Document, error) {
	page = page.Normalize()
	conds := make([]string, len(domain.SearchFields))
	for i, f := range domain.SearchFields {
		conds[i] = f + ` ILIKE $2 ESCAPE '\'`
	}
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1 AND (` + strings.Join(conds, " OR ") + `)
		ORDER BY created_at DESC
		OFFSET $3 LIMIT $4
	`
	return r.list(ctx, query, owner, likePattern(q), page.Skip, page.Limit)
}

// Update applies a partial update under a row lock and returns the stored document.
func (r *DocumentsRepository) Update(ctx context.Context, owner, id uuid.UUID, upd domain.DocumentUpdate) (*domain.Document, error) {
	var doc *domain.Document
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		doc, err = getDocument(ctx, tx,
			`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, owner)
		if err != nil {
			return err
		}

		upd.Apply(doc)
		doc.UpdatedAt = time.Now()

		query := `
			UPDATE documents
			SET document_name = $3, scan_type = $4, is_favorite = $5,
			    name = $6, profession = $7, email = $8, mobile_number = $9, address = $10,
			    company_name = $11, website = $12, isbn_no = $13, book_name = $14,
			    author_name = $15, publication = $16, number_of_pages = $17, subject = $18,
			    summary = $19, updated_at = $20
			WHERE id = $1 AND user_id = $2
		`
		args := append(documentArgs(doc)[:19], doc.UpdatedAt)
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document owned by owner.
func (r *DocumentsRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentsRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getDocument(ctx context.Context, q Querier, query string, args ...any) (*domain.Document, error) {
	doc, err := scanDocument(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	doc := &domain.Document{}
	var scanType string
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.DocumentName, &scanType, &doc.IsFavorite,
		&doc.Name, &doc.Profession, &doc.Email, &doc.MobileNumber, &doc.Address,
		&doc.CompanyName, &doc.Website,
		&doc.ISBNNo, &doc.BookName, &doc.AuthorName, &doc.Publication, &doc.NumberOfPages,
		&doc.Subject, &doc.Summary,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ScanType = domain.ScanType(scanType)
	return doc, nil
}

// documentArgs returns the column values in documentColumns order.
func documentArgs(doc *domain.Document) []any {
	return []any{
		doc.ID, doc.UserID, doc.DocumentName, string(doc.ScanType), doc.IsFavorite,
		doc.Name, doc.Profession, doc.Email, doc.MobileNumber, doc.Address,
		doc.CompanyName, doc.Website,
		doc.ISBNNo, doc.BookName, doc.AuthorName, doc.Publication, doc.NumberOfPages,
		doc.Subject, doc.Summary,
		doc.CreatedAt, doc.UpdatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps q for a substring ILIKE match with wildcards escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
