package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoCookie indicates the request carries no session cookie.
	ErrNoCookie = errors.New("session cookie missing")
	// ErrBadCookie indicates the cookie failed signature or payload checks.
	ErrBadCookie = errors.New("session cookie invalid")
)

// Claims is the browser-side half of a session: identifiers only, never
// expiration or preference data. Those live server-side in the Session row.
// The lng field mirrors the locale chosen by the preferences endpoint.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    int64  `json:"uid,omitempty"`
	Locale    string `json:"lng,omitempty"`
}

// Authenticated reports whether the cookie claims a logged-in user.
func (c Claims) Authenticated() bool {
	return c.UserID != 0
}

// CookieCodec signs and verifies the session cookie. It is constructed
// explicitly from configuration and passed by reference to request handling
// code; there is no package-level instance.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
}

// NewCookieCodec constructs a codec for the named cookie.
func NewCookieCodec(name, secret string, secure bool) *CookieCodec {
	return &CookieCodec{name: name, secret: []byte(secret), secure: secure}
}

// Name returns the cookie name.
func (c *CookieCodec) Name() string {
	return c.name
}

// Read extracts and verifies claims from the request cookie.
func (c *CookieCodec) Read(r *http.Request) (Claims, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return Claims{}, ErrNoCookie
	}
	return c.Decode(cookie.Value)
}

// Write sets the session cookie. A zero maxAge produces a session-scoped
// cookie; a positive maxAge makes it persistent.
func (c *CookieCodec) Write(w http.ResponseWriter, claims Claims, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     c.name,
		Value:    c.Encode(claims),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
	}
	http.SetCookie(w, cookie)
}

// Clear expires the session cookie on the client.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Encode serializes claims as payload.signature, both base64url.
func (c *CookieCodec) Encode(claims Claims) string {
	payload, _ := json.Marshal(claims)
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded)
}

// Decode verifies the signature and unmarshals the claims.
func (c *CookieCodec) Decode(value string) (Claims, error) {
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok {
		return Claims{}, ErrBadCookie
	}
	if !hmac.Equal([]byte(c.sign(encoded)), []byte(sig)) {
		return Claims{}, ErrBadCookie
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Claims{}, ErrBadCookie
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrBadCookie
	}
	if claims.SessionID == "" {
		return Claims{}, ErrBadCookie
	}
	return claims, nil
}

func (c *CookieCodec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
