package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpad-app/inkpad/internal/shared"
)

// Repository defines persistence operations for notes. Every operation is
// scoped to the owning user.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]ListItem, error)
	GetForUser(ctx context.Context, id string, userID int64) (*Note, error)
	Create(ctx context.Context, note *Note) error
	DeleteForUser(ctx context.Context, id string, userID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListByUser returns the user's notes, most recently updated first.
func (r *PGRepository) ListByUser(ctx context.Context, userID int64) ([]ListItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title FROM notes WHERE user_id = $1 ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("notes: list: %w", err)
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, fmt.Errorf("notes: scan list item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notes: iterate list: %w", err)
	}
	return items, nil
}

// GetForUser fetches a note owned by the user.
func (r *PGRepository) GetForUser(ctx context.Context, id string, userID int64) (*Note, error) {
	var note Note
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, body, created_at, updated_at
		 FROM notes WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&note.ID, &note.UserID, &note.Title, &note.Body, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("notes: get: %w", err)
	}
	return &note, nil
}

// Create inserts a note.
func (r *PGRepository) Create(ctx context.Context, note *Note) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, body) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		note.ID, note.UserID, note.Title, note.Body,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("notes: create: %w", err)
	}
	return nil
}

// DeleteForUser removes a note owned by the user.
func (r *PGRepository) DeleteForUser(ctx context.Context, id string, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notes: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
