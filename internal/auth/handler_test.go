package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
	"github.com/inkpad-app/inkpad/internal/view"
	_ "github.com/inkpad-app/inkpad/testing"
)

type handlerFixture struct {
	handler *Handler
	users   *Service
	store   *sessionStore
	codec   *session.CookieCodec
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	store := newSessionStore()
	codec := session.NewCookieCodec("__session", "secret", false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flow := NewFlow(logger, session.NewService(store), codec)

	users := NewService(newMockRepository())
	templates, err := view.NewEngine()
	require.NoError(t, err)

	handler := NewHandler(logger, users, NewAuthenticator(StrategyForm, users), flow, templates, shared.NewCSRFManager("csrfsecret"))
	return &handlerFixture{handler: handler, users: users, store: store, codec: codec}
}

func withGuestSession(req *http.Request) *http.Request {
	guest := &session.Session{
		ID:   "guest-1",
		Data: &session.Data{SessionID: "guest-1", Locale: "zh", Theme: "dark"},
	}
	return req.WithContext(session.ContextWith(req.Context(), guest))
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withGuestSession(req)
}

func TestShowLoginRendersForm(t *testing.T) {
	f := newHandlerFixture(t)

	req := withGuestSession(httptest.NewRequest(http.MethodGet, "/login", nil))
	res := httptest.NewRecorder()
	f.handler.ShowLoginForTest(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
}

func TestShowLoginRedirectsAuthenticatedUsers(t *testing.T) {
	f := newHandlerFixture(t)

	userID := int64(7)
	expires := time.Now().Add(session.MaxAge)
	authed := &session.Session{ID: "sess-1", UserID: &userID, ExpiresAt: &expires}
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(session.ContextWith(req.Context(), authed))
	res := httptest.NewRecorder()
	f.handler.ShowLoginForTest(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestLoginValidatesForm(t *testing.T) {
	f := newHandlerFixture(t)

	cases := []struct {
		name    string
		form    url.Values
		message string
	}{
		{"bad email", url.Values{"email": {"not-an-email"}, "password": {"kodylovesyou"}}, "Email is invalid"},
		{"missing password", url.Values{"email": {"kody@example.com"}}, "Password is required"},
		{"short password", url.Values{"email": {"kody@example.com"}, "password": {"short"}}, "Password is too short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			f.handler.HandleLoginForTest(res, postForm("/login", tc.form))

			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Contains(t, res.Body.String(), tc.message)
		})
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.users.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	wrongPass := url.Values{"email": {"kody@example.com"}, "password": {"wrong-password"}}
	unknown := url.Values{"email": {"nobody@example.com"}, "password": {"kodylovesyou"}}

	for name, form := range map[string]url.Values{"wrong password": wrongPass, "unknown email": unknown} {
		t.Run(name, func(t *testing.T) {
			res := httptest.NewRecorder()
			f.handler.HandleLoginForTest(res, postForm("/login", form))

			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Contains(t, res.Body.String(), "Invalid email or password")
		})
	}
}

func TestLoginEstablishesRememberedSession(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.users.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	form := url.Values{
		"email":      {"kody@example.com"},
		"password":   {"kodylovesyou"},
		"rememberMe": {"on"},
		"redirectTo": {"/notes"},
	}
	res := httptest.NewRecorder()
	f.handler.HandleLoginForTest(res, postForm("/login", form))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/notes", res.Header().Get("Location"))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, int(session.MaxAge/time.Second), cookies[0].MaxAge)

	claims, err := f.codec.Decode(cookies[0].Value)
	require.NoError(t, err)
	created := f.store.sessions[claims.SessionID]
	require.NotNil(t, created)
	assert.True(t, created.Remember)
	// Preferences carry over from the guest session.
	assert.Equal(t, "zh", created.Data.Locale)
	assert.Equal(t, "dark", created.Data.Theme)
}

func TestLoginWithoutRememberIsSessionScoped(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.users.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	form := url.Values{"email": {"kody@example.com"}, "password": {"kodylovesyou"}}
	res := httptest.NewRecorder()
	f.handler.HandleLoginForTest(res, postForm("/login", form))

	require.Equal(t, http.StatusSeeOther, res.Code)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 0, cookies[0].MaxAge)
}

func TestLoginRejectsOffsiteRedirect(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.users.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	form := url.Values{
		"email":      {"kody@example.com"},
		"password":   {"kodylovesyou"},
		"redirectTo": {"https://evil.example"},
	}
	res := httptest.NewRecorder()
	f.handler.HandleLoginForTest(res, postForm("/login", form))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
}

func TestSignUpCreatesAccountAndSession(t *testing.T) {
	f := newHandlerFixture(t)

	form := url.Values{
		"email":       {"kody@example.com"},
		"password":    {"kodylovesyou"},
		"confirm-pwd": {"kodylovesyou"},
	}
	res := httptest.NewRecorder()
	f.handler.HandleSignUpForTest(res, postForm("/sign-up", form))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))

	user, err := f.users.GetByEmail(context.Background(), "kody@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)

	// Fresh sign-ups never get a persistent cookie.
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 0, cookies[0].MaxAge)
}

func TestSignUpRejectsMismatchedPasswords(t *testing.T) {
	f := newHandlerFixture(t)

	form := url.Values{
		"email":       {"kody@example.com"},
		"password":    {"kodylovesyou"},
		"confirm-pwd": {"something-else"},
	}
	res := httptest.NewRecorder()
	f.handler.HandleSignUpForTest(res, postForm("/sign-up", form))

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "The passwords entered twice are inconsistent")
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	f := newHandlerFixture(t)
	_, err := f.users.Register(context.Background(), "kody@example.com", "kodylovesyou")
	require.NoError(t, err)

	form := url.Values{
		"email":       {"kody@example.com"},
		"password":    {"kodylovesyou"},
		"confirm-pwd": {"kodylovesyou"},
	}
	res := httptest.NewRecorder()
	f.handler.HandleSignUpForTest(res, postForm("/sign-up", form))

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "A user already exists with this email")
}
