package hrs

import (
	"net/http"
	"strings"
	"time"
)

// Session is the authenticated state against the reservation platform:
// the cookie jar plus the CSRF token the server expects echoed back on
// state-changing calls. It is an explicit value handed to the client, not
// process-global state.
type Session struct {
	CSRFToken string            `json:"csrf_token"`
	Cookies   map[string]string `json:"cookies"`
	LoginAt   time.Time         `json:"login_at"`
}

// csrfCookieName is the double-submit cookie the platform rotates. The value
// found here after any call is more current than one from a prior JSON body.
const csrfCookieName = "XSRF-TOKEN"

// csrfHeaderName carries the token back on state-changing requests.
const csrfHeaderName = "X-XSRF-TOKEN"

func NewSession() *Session {
	return &Session{
		Cookies: make(map[string]string),
	}
}

// IsLoggedIn reports whether a token and at least one cookie are present.
// It does not guarantee the remote session is still valid.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.CSRFToken != "" && len(s.Cookies) > 0
}

// IsExpired reports whether the session has outlived ttl at the given time.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	if s == nil || s.LoginAt.IsZero() {
		return true
	}
	return now.Sub(s.LoginAt) >= ttl
}

// CookieHeader renders the jar as a Cookie header value.
func (s *Session) CookieHeader() string {
	if len(s.Cookies) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(s.Cookies))
	for name, value := range s.Cookies {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, "; ")
}

// absorbCookies merges Set-Cookie headers into the jar and refreshes the
// CSRF token whenever the server rotated it.
func (s *Session) absorbCookies(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		s.Cookies[c.Name] = c.Value
		if c.Name == csrfCookieName && c.Value != "" {
			s.CSRFToken = c.Value
		}
	}
}
