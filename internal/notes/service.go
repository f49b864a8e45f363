package notes

import (
	"context"

	"github.com/google/uuid"
)

// Service handles note business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForUser returns the user's note list items.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]ListItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser fetches a single note owned by the user.
func (s *Service) GetForUser(ctx context.Context, id string, userID int64) (*Note, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

// Create stores a new note for the user.
func (s *Service) Create(ctx context.Context, userID int64, title, body string) (*Note, error) {
	note := &Note{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteForUser removes a note owned by the user.
func (s *Service) DeleteForUser(ctx context.Context, id string, userID int64) error {
	return s.repo.DeleteForUser(ctx, id, userID)
}
