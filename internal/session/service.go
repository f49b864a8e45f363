package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkpad-app/inkpad/internal/shared"
)

// CreateParams describes a new session. Remember is tri-state: nil creates a
// guest placeholder that never expires, true a 20-day session, false a 1-day
// session.
type CreateParams struct {
	Remember *bool
	UserID   *int64
	Locale   string
	Theme    string
}

// Service wraps session record business rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create persists a session together with its data row and computes the
// expiration from the remember flag.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Remember != nil {
		sess.Remember = *p.Remember
		age := MaxAgeShort
		if *p.Remember {
			age = MaxAge
		}
		expires := now.Add(age)
		sess.ExpiresAt = &expires
	}
	locale := p.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	theme := p.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	sess.Data = &Data{SessionID: sess.ID, Locale: locale, Theme: theme}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetByID returns the session or nil when it does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// GetByIDOrErr returns the session or shared.ErrNotFound when absent.
func (s *Service) GetByIDOrErr(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return sess, nil
}

// UpdateExpiration overwrites the expiration. Callers use a future date to
// extend and the current instant to expire immediately.
func (s *Service) UpdateExpiration(ctx context.Context, id string, expiresAt time.Time) error {
	return s.repo.UpdateExpiration(ctx, id, &expiresAt)
}

// ExpireNow marks the session expired as of the current instant.
func (s *Service) ExpireNow(ctx context.Context, id string) error {
	now := s.now()
	return s.repo.UpdateExpiration(ctx, id, &now)
}

// UpdateData replaces the locale and theme stored for a session.
func (s *Service) UpdateData(ctx context.Context, id, locale, theme string) error {
	return s.repo.UpdateData(ctx, id, locale, theme)
}

// PurgeExpired deletes sessions that have been expired for at least grace.
func (s *Service) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	return s.repo.DeleteExpiredBefore(ctx, s.now().Add(-grace))
}
