package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/tendant/scanvault/pkg/session"
)

// SessionsRepository persists HTTP sessions in Postgres. It satisfies
// session.Store.
type SessionsRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.Store = (*SessionsRepository)(nil)

// NewSessionsRepository creates a new sessions repository.
func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db, now: time.Now}
}

// Load retrieves a live session by ID.
func (r *SessionsRepository) Load(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT data
		FROM http_sessions
		WHERE id = $1 AND expires_at > $2
	`
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, id, r.now()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	s := &session.Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save upserts the session.
func (r *SessionsRepository) Save(ctx context.Context, s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO http_sessions (id, data, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, raw, s.CreatedAt, s.ExpiresAt); err != nil {
		return err
	}
	s.MarkSaved()
	return nil
}

// Delete removes a session.
func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM http_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpired deletes sessions whose absolute lifetime has ended.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM http_sessions WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
