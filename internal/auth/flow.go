package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
)

// Flow coordinates the session state machine for every request: guest session
// creation, expiration extension and forced logout when the cookie and the
// persisted record disagree. The persisted record is authoritative.
type Flow struct {
	logger   *slog.Logger
	sessions *session.Service
	cookies  *session.CookieCodec
	now      func() time.Time
	metrics  SessionMetrics
}

// SessionMetrics records session lifecycle counters.
type SessionMetrics interface {
	SessionStarted(kind string)
}

// NewFlow constructs a Flow instance.
func NewFlow(logger *slog.Logger, sessions *session.Service, cookies *session.CookieCodec) *Flow {
	return &Flow{logger: logger, sessions: sessions, cookies: cookies, now: time.Now}
}

// SetMetrics attaches an optional metrics sink.
func (f *Flow) SetMetrics(m SessionMetrics) {
	f.metrics = m
}

func (f *Flow) countSession(kind string) {
	if f.metrics != nil {
		f.metrics.SessionStarted(kind)
	}
}

// Now exposes the flow's clock.
func (f *Flow) Now() time.Time {
	return f.now()
}

// Middleware resolves the cookie, loads the persisted session and stores it
// in the request context. Requests without a usable cookie get a fresh guest
// session. Authentication failures degrade to a login redirect, never a 500.
func (f *Flow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := f.cookies.Read(r)
		if err != nil {
			sess, err := f.startGuest(w, r)
			if err != nil {
				f.logger.Error("create guest session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.ContextWith(r.Context(), sess)))
			return
		}

		rec, err := f.sessions.GetByID(r.Context(), claims.SessionID)
		if err != nil {
			f.logger.Error("load session record", slog.Any("error", err), slog.String("session_id", claims.SessionID))
			f.forceLogout(w, r, claims)
			return
		}

		if claims.Authenticated() {
			if rec.CanAuthenticate(f.now()) && *rec.UserID == claims.UserID {
				f.extendExpiration(w, r, claims, rec)
				next.ServeHTTP(w, r.WithContext(session.ContextWith(r.Context(), rec)))
				return
			}
			// Session expired, deleted server-side, or pointing at another
			// user: the stores disagree, fall back to guest via login.
			f.forceLogout(w, r, claims)
			return
		}

		// Cookie says guest. A missing record means the row was deleted while
		// the browser kept the cookie; restart the guest flow.
		if rec == nil {
			f.forceLogout(w, r, claims)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.ContextWith(r.Context(), rec)))
	})
}

// startGuest creates a non-expiring guest session carrying negotiated locale
// defaults and hands the browser its cookie.
func (f *Flow) startGuest(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	locale := session.NegotiateLocale(r.Header.Get("Accept-Language"))
	sess, err := f.sessions.Create(r.Context(), session.CreateParams{
		Locale: locale,
		Theme:  session.DefaultTheme,
	})
	if err != nil {
		return nil, err
	}
	f.cookies.Write(w, session.Claims{SessionID: sess.ID, Locale: locale}, 0)
	f.countSession("guest")
	return sess, nil
}

// RequireUser gates routes on an authenticated, unexpired session, otherwise
// redirects to the login page with the original path preserved.
func (f *Flow) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.CanAuthenticate(f.now()) {
			params := url.Values{"redirectTo": {r.URL.Path}}
			http.Redirect(w, r, "/login?"+params.Encode(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login persists a fresh session for the user and writes the cookie. The
// cookie becomes persistent only when remember is set.
func (f *Flow) Login(w http.ResponseWriter, r *http.Request, userID int64, remember bool, locale, theme string) (*session.Session, error) {
	sess, err := f.sessions.Create(r.Context(), session.CreateParams{
		Remember: &remember,
		UserID:   &userID,
		Locale:   locale,
		Theme:    theme,
	})
	if err != nil {
		return nil, err
	}
	var maxAge time.Duration
	if remember {
		maxAge = session.MaxAge
	}
	f.cookies.Write(w, session.Claims{SessionID: sess.ID, UserID: userID, Locale: locale}, maxAge)
	f.countSession("login")
	return sess, nil
}

// Logout expires the persisted session best-effort, clears the cookie and
// redirects to the login page. Clearing the cookie always succeeds even when
// the record is already gone.
func (f *Flow) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := f.cookies.Read(r)
	if err != nil {
		f.cookies.Clear(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	f.forceLogout(w, r, claims)
}

func (f *Flow) forceLogout(w http.ResponseWriter, r *http.Request, claims session.Claims) {
	if err := f.sessions.ExpireNow(r.Context(), claims.SessionID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			f.logger.Warn("logout for unknown session", slog.String("session_id", claims.SessionID))
		} else {
			f.logger.Error("expire session", slog.Any("error", err), slog.String("session_id", claims.SessionID))
		}
	}
	f.cookies.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// extendExpiration applies the hysteresis rule: only remember-me sessions are
// extended, and only once less than half of the full window remains. The
// write is last-write-wins across concurrent requests.
func (f *Flow) extendExpiration(w http.ResponseWriter, r *http.Request, claims session.Claims, rec *session.Session) {
	if !rec.Remember {
		return
	}
	now := f.now()
	if rec.ExpiresAt != nil && rec.ExpiresAt.Sub(now) > session.MaxAge/2 {
		return
	}
	if err := f.sessions.UpdateExpiration(r.Context(), rec.ID, now.Add(session.MaxAge)); err != nil {
		f.logger.Error("extend session", slog.Any("error", err), slog.String("session_id", rec.ID))
		return
	}
	f.cookies.Write(w, claims, session.MaxAge)
}
