package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpad-app/inkpad/internal/shared"
)

type mockRepository struct {
	sessions map[string]*Session

	createError error
	getError    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{sessions: make(map[string]*Session)}
}

func (m *mockRepository) Create(ctx context.Context, sess *Session) error {
	if m.createError != nil {
		return m.createError
	}
	clone := *sess
	m.sessions[sess.ID] = &clone
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	sess, ok := m.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (m *mockRepository) UpdateExpiration(ctx context.Context, id string, expiresAt *time.Time) error {
	sess, ok := m.sessions[id]
	if !ok {
		return shared.ErrNotFound
	}
	sess.ExpiresAt = expiresAt
	return nil
}

func (m *mockRepository) UpdateData(ctx context.Context, id, locale, theme string) error {
	sess, ok := m.sessions[id]
	if !ok || sess.Data == nil {
		return shared.ErrNotFound
	}
	sess.Data.Locale = locale
	sess.Data.Theme = theme
	return nil
}

func (m *mockRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, sess := range m.sessions {
		if sess.ExpiresAt != nil && sess.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateGuestSessionNeverExpires(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	sess, err := svc.Create(context.Background(), CreateParams{Locale: "en"})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Nil(t, sess.UserID)
	assert.Nil(t, sess.ExpiresAt)
	assert.False(t, sess.Remember)
	assert.True(t, sess.IsGuest())
	require.NotNil(t, sess.Data)
	assert.Equal(t, "en", sess.Data.Locale)
	assert.Equal(t, DefaultTheme, sess.Data.Theme)
}

func TestCreateRememberedSessionExpiresInTwentyDays(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	remember := true
	userID := int64(7)
	sess, err := svc.Create(context.Background(), CreateParams{Remember: &remember, UserID: &userID})
	require.NoError(t, err)

	require.NotNil(t, sess.ExpiresAt)
	assert.Equal(t, now.Add(MaxAge), *sess.ExpiresAt)
	assert.True(t, sess.Remember)
	assert.True(t, sess.CanAuthenticate(now))
}

func TestCreateShortSessionExpiresInOneDay(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	remember := false
	userID := int64(7)
	sess, err := svc.Create(context.Background(), CreateParams{Remember: &remember, UserID: &userID})
	require.NoError(t, err)

	require.NotNil(t, sess.ExpiresAt)
	assert.Equal(t, now.Add(MaxAgeShort), *sess.ExpiresAt)
	assert.False(t, sess.Remember)
}

func TestCreateFillsDefaultPreferences(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, time.Now())

	sess, err := svc.Create(context.Background(), CreateParams{})
	require.NoError(t, err)

	assert.Equal(t, DefaultLocale, sess.Data.Locale)
	assert.Equal(t, DefaultTheme, sess.Data.Theme)
}

func TestGetByIDReturnsNilOnMissing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, time.Now())

	sess, err := svc.GetByID(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetByIDOrErrReportsMissing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, time.Now())

	_, err := svc.GetByIDOrErr(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExpireNowCutsOffAuthentication(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	remember := true
	userID := int64(3)
	sess, err := svc.Create(context.Background(), CreateParams{Remember: &remember, UserID: &userID})
	require.NoError(t, err)
	require.True(t, sess.CanAuthenticate(now))

	require.NoError(t, svc.ExpireNow(context.Background(), sess.ID))

	stored, err := svc.GetByIDOrErr(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, stored.CanAuthenticate(now))
}

func TestUpdateExpirationUnknownSession(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, time.Now())

	err := svc.UpdateExpiration(context.Background(), "gone", time.Now().Add(time.Hour))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPurgeExpiredHonorsGrace(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	longGone := now.Add(-48 * time.Hour)
	recentlyExpired := now.Add(-time.Hour)
	repo.sessions["old"] = &Session{ID: "old", ExpiresAt: &longGone}
	repo.sessions["fresh"] = &Session{ID: "fresh", ExpiresAt: &recentlyExpired}
	repo.sessions["guest"] = &Session{ID: "guest"}

	deleted, err := svc.PurgeExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(1), deleted)
	assert.NotContains(t, repo.sessions, "old")
	assert.Contains(t, repo.sessions, "fresh")
	assert.Contains(t, repo.sessions, "guest")
}
