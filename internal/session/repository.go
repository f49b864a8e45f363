package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpad-app/inkpad/internal/platform/db"
	"github.com/inkpad-app/inkpad/internal/shared"
)

// Repository defines persistence operations for session records.
type Repository interface {
	Create(ctx context.Context, sess *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	UpdateExpiration(ctx context.Context, id string, expiresAt *time.Time) error
	UpdateData(ctx context.Context, id, locale, theme string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts the session and its data row in one transaction. A session
// is never persisted without its attached data.
func (r *PGRepository) Create(ctx context.Context, sess *Session) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, user_id, remember, expires_at) VALUES ($1, $2, $3, $4)`,
			sess.ID, sess.UserID, sess.Remember, sess.ExpiresAt,
		); err != nil {
			return fmt.Errorf("session: insert session: %w", err)
		}
		if sess.Data == nil {
			return errors.New("session: data row required")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_data (session_id, locale, theme) VALUES ($1, $2, $3)`,
			sess.ID, sess.Data.Locale, sess.Data.Theme,
		); err != nil {
			return fmt.Errorf("session: insert session data: %w", err)
		}
		return nil
	})
}

// GetByID fetches a session with its data row.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT s.id, s.user_id, s.remember, s.expires_at, s.created_at, s.updated_at,
		        d.locale, d.theme, d.updated_at
		 FROM sessions s
		 LEFT JOIN session_data d ON d.session_id = s.id
		 WHERE s.id = $1`, id)

	var sess Session
	var locale, theme *string
	var dataUpdated *time.Time
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Remember, &sess.ExpiresAt,
		&sess.CreatedAt, &sess.UpdatedAt, &locale, &theme, &dataUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("session: get by id: %w", err)
	}
	if locale != nil && theme != nil {
		sess.Data = &Data{SessionID: sess.ID, Locale: *locale, Theme: *theme}
		if dataUpdated != nil {
			sess.Data.UpdatedAt = *dataUpdated
		}
	}
	return &sess, nil
}

// UpdateExpiration overwrites the expiration unconditionally.
func (r *PGRepository) UpdateExpiration(ctx context.Context, id string, expiresAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET expires_at = $2, updated_at = now() WHERE id = $1`,
		id, expiresAt)
	if err != nil {
		return fmt.Errorf("session: update expiration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateData replaces the preference fields for a session.
func (r *PGRepository) UpdateData(ctx context.Context, id, locale, theme string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE session_data SET locale = $2, theme = $3, updated_at = now() WHERE session_id = $1`,
		id, locale, theme)
	if err != nil {
		return fmt.Errorf("session: update data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes sessions whose expiration passed before cutoff.
// Data rows go with them via the cascading foreign key.
func (r *PGRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
