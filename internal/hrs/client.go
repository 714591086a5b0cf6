package hrs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"hutsync/pkg/logger"
	"hutsync/pkg/retry"
)

// Config holds connection parameters for the reservation platform.
type Config struct {
	BaseURL  string
	Username string
	Password string
	HutID    int

	Timeout       time.Duration
	SessionTTL    time.Duration
	PageSize      int
	MutationPause time.Duration
}

// Response is the raw result of one authenticated platform call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the reservation platform. It owns the login session and
// serializes all calls; the platform tolerates no parallel mutations from
// one account.
type Client struct {
	config     Config
	httpClient *http.Client
	log        *logger.Logger

	store SessionStore
	retry retry.Policy

	mu      sync.Mutex
	session *Session
}

// NewClient creates a platform client. Sessions are established lazily on
// the first call through EnsureSession or explicitly via Login.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.GetDefault(),
		session:    NewSession(),
	}
}

// SetSessionStore injects an external session cache so repeated invocations
// skip the handshake while the cached session is fresh.
func (c *Client) SetSessionStore(store SessionStore) {
	c.store = store
}

// SetRetryPolicy injects the transport retry policy. Only idempotent GETs
// are retried.
func (c *Client) SetRetryPolicy(p retry.Policy) {
	c.retry = p
}

// HutID returns the configured hut identifier.
func (c *Client) HutID() int {
	return c.config.HutID
}

// MutationPause is the courtesy pause callers insert between sequential
// mutating calls.
func (c *Client) MutationPause() time.Duration {
	return c.config.MutationPause
}

// IsLoggedIn reports whether a session with a token and cookies is held.
func (c *Client) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsLoggedIn()
}

// CSRFToken returns the current token, empty before login.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.CSRFToken
}

// Cookies returns a copy of the current cookie jar.
func (c *Client) Cookies() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.session.Cookies))
	for k, v := range c.session.Cookies {
		out[k] = v
	}
	return out
}

// Login forces a fresh four-step handshake, discarding any held session.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// EnsureSession makes a valid session available: held and fresh, loaded from
// the store, or re-established via the handshake.
func (c *Client) EnsureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.session.IsLoggedIn() && !c.session.IsExpired(now, c.config.SessionTTL) {
		return nil
	}

	if c.store != nil {
		if cached, err := c.store.Load(ctx); err == nil && cached.IsLoggedIn() && !cached.IsExpired(now, c.config.SessionTTL) {
			c.session = cached
			return nil
		}
	}

	return c.loginLocked(ctx)
}

// loginLocked runs the handshake: (1) GET the login page to seed cookies,
// (2) GET the CSRF token, (3) POST the email verification, (4) POST the
// credentials. Any non-2xx step is fatal and later steps are not attempted.
// The token is re-read from cookies after steps 2-4 because the server may
// rotate it; the cookie value wins over the one from the JSON body.
func (c *Client) loginLocked(ctx context.Context) error {
	sess := NewSession()

	// Step 1: seed session cookies
	resp, err := c.execute(ctx, sess, http.MethodGet, "/login", nil, "")
	if err != nil {
		c.log.LogHRSLogin(ctx, "login-page", err)
		return err
	}
	if !resp.OK() {
		err = fmt.Errorf("%w: login page returned status %d", ErrAuthentication, resp.StatusCode)
		c.log.LogHRSLogin(ctx, "login-page", err)
		return err
	}

	// Step 2: obtain the CSRF token
	resp, err = c.execute(ctx, sess, http.MethodGet, "/api/v1/csrf", nil, "")
	if err != nil {
		c.log.LogHRSLogin(ctx, "csrf", err)
		return err
	}
	if !resp.OK() {
		err = fmt.Errorf("%w: csrf endpoint returned status %d", ErrAuthentication, resp.StatusCode)
		c.log.LogHRSLogin(ctx, "csrf", err)
		return err
	}
	var csrfBody struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &csrfBody); err != nil {
		err = fmt.Errorf("%w: csrf response not parseable: %v", ErrAuthentication, err)
		c.log.LogHRSLogin(ctx, "csrf", err)
		return err
	}
	if sess.CSRFToken == "" {
		sess.CSRFToken = csrfBody.Token
	}

	// Step 3: email verification
	verifyBody, _ := json.Marshal(map[string]string{"userEmail": c.config.Username})
	resp, err = c.execute(ctx, sess, http.MethodPost, "/api/v1/users/verifyEmail", verifyBody, "application/json")
	if err != nil {
		c.log.LogHRSLogin(ctx, "verify-email", err)
		return err
	}
	if !resp.OK() {
		err = fmt.Errorf("%w: email verification returned status %d", ErrAuthentication, resp.StatusCode)
		c.log.LogHRSLogin(ctx, "verify-email", err)
		return err
	}

	// Step 4: credentials
	form := url.Values{}
	form.Set("username", c.config.Username)
	form.Set("password", c.config.Password)
	resp, err = c.execute(ctx, sess, http.MethodPost, "/api/v1/users/login", []byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		c.log.LogHRSLogin(ctx, "credentials", err)
		return err
	}
	if !resp.OK() {
		err = fmt.Errorf("%w: credential login returned status %d", ErrAuthentication, resp.StatusCode)
		c.log.LogHRSLogin(ctx, "credentials", err)
		return err
	}

	sess.LoginAt = time.Now()
	c.session = sess
	c.log.LogHRSLogin(ctx, "done", nil)

	if c.store != nil {
		// best effort; a missing cache only costs a future handshake
		_ = c.store.Save(ctx, sess)
	}
	return nil
}

// Do issues one authenticated call against the platform. The cookie jar and
// CSRF token are attached and refreshed from the response. GETs run under
// the retry policy; mutations are never retried here.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	contentType := ""
	if len(body) > 0 {
		contentType = "application/json"
	}
	if ct, ok := headers["Content-Type"]; ok {
		contentType = ct
	}

	call := func() (*Response, error) {
		return c.executeWithHeaders(ctx, c.session, method, path, body, contentType, headers)
	}

	var resp *Response
	var err error
	if method == http.MethodGet && c.retry.MaxAttempts > 1 {
		err = c.retry.Do(ctx, func() error {
			resp, err = call()
			return err
		})
	} else {
		resp, err = call()
	}
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		// the server may have rotated cookies or the token
		_ = c.store.Save(ctx, c.session)
	}
	return resp, nil
}

// execute performs one HTTP round trip with the given session attached and
// absorbs response cookies back into it.
func (c *Client) execute(ctx context.Context, sess *Session, method, path string, body []byte, contentType string) (*Response, error) {
	return c.executeWithHeaders(ctx, sess, method, path, body, contentType, nil)
}

func (c *Client) executeWithHeaders(ctx context.Context, sess *Session, method, path string, body []byte, contentType string, extra map[string]string) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie := sess.CookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if sess.CSRFToken != "" {
		req.Header.Set(csrfHeaderName, sess.CSRFToken)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response of %s %s: %v", ErrTransport, method, path, err)
	}

	sess.absorbCookies(httpResp.Cookies())
	c.log.LogHRSRequest(ctx, method, path, httpResp.StatusCode, time.Since(start))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}
