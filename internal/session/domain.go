package session

import "time"

const (
	// MaxAge is the session lifetime when the user checked remember-me.
	MaxAge = 20 * 24 * time.Hour
	// MaxAgeShort is the session lifetime for logins without remember-me.
	MaxAgeShort = 24 * time.Hour
)

// Session is the persisted session record. It is distinct from the browser
// cookie, which only carries identifiers pointing at this row.
type Session struct {
	ID        string
	UserID    *int64
	Remember  bool
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      *Data
}

// Data carries the presentation preferences attached 1:1 to a session.
type Data struct {
	SessionID string
	Locale    string
	Theme     string
	UpdatedAt time.Time
}

// SessionID returns the ID, empty for a nil session.
func (s *Session) SessionID() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// IsGuest reports whether no user is attached to the session.
func (s *Session) IsGuest() bool {
	return s == nil || s.UserID == nil
}

// CanAuthenticate reports whether the record may vouch for its user at the
// given instant. Guest rows (nil expiration) never authenticate anyone.
func (s *Session) CanAuthenticate(now time.Time) bool {
	return s != nil && s.UserID != nil && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// Locale returns the stored locale or the default when data is missing.
func (s *Session) Locale() string {
	if s == nil || s.Data == nil || s.Data.Locale == "" {
		return DefaultLocale
	}
	return s.Data.Locale
}

// Theme returns the stored theme or the default when data is missing.
func (s *Session) Theme() string {
	if s == nil || s.Data == nil || s.Data.Theme == "" {
		return DefaultTheme
	}
	return s.Data.Theme
}
