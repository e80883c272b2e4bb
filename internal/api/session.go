package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/gigas/internal/metrics"
)

const (
	// DefaultEndpoint is the production API host used when no endpoint is
	// configured.
	DefaultEndpoint = "https://api.madrid.gigas.com"

	// authScheme is the provider's Authorization header scheme.
	authScheme = "Gigas"

	defaultRequestTimeout = 30 * time.Second

	// maxAuthRetries bounds the 401 responses tolerated within one
	// operation: the first triggers a refresh and a single retry, the
	// second is fatal.
	maxAuthRetries = 2
)

// Session holds the endpoint, credentials and current bearer token for one
// provider account, and executes authorized requests against it.
type Session struct {
	endpoint string
	user     string
	password string

	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics

	mu    sync.Mutex
	token string
}

// Option configures optional Session collaborators.
type Option func(*Session)

// WithHTTPClient replaces the default HTTP client. The caller is responsible
// for any timeout configured on it.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session for the given endpoint and credentials.
//
// If endpoint is empty, DefaultEndpoint is used. The session does not
// contact the provider: the token is acquired on first use. Use Connect to
// authenticate eagerly.
func NewSession(endpoint, user, password string, opts ...Option) (*Session, error) {
	if user == "" || password == "" {
		return nil, &AuthError{Reason: "missing credentials"}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	s := &Session{
		endpoint:   strings.TrimRight(endpoint, "/"),
		user:       user,
		password:   password,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		log:        zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Connect creates a session and performs the initial token request.
func Connect(ctx context.Context, endpoint, user, password string, opts ...Option) (*Session, error) {
	s, err := NewSession(endpoint, user, password, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Authenticate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Endpoint returns the normalized base URL this session talks to.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Authenticate acquires a fresh token, replacing any stored one. Concurrent
// callers are serialized; each successful call overwrites the token, so all
// requests observe the latest.
func (s *Session) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(ctx)
}

func (s *Session) authenticateLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("login", s.user)
	form.Set("password", s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Reason: "failed to build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &AuthError{Reason: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	s.metrics.RequestCompleted(http.MethodPost, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return &AuthError{
			Reason: "token request rejected",
			Err:    &StatusError{Method: http.MethodPost, Path: "/token", Code: resp.StatusCode},
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return &AuthError{Reason: "malformed token response", Err: err}
	}
	if tr.Token == "" {
		return &AuthError{Reason: "token response missing token"}
	}

	s.token = tr.Token
	s.metrics.AuthRefreshed()
	s.log.Info("authenticated", zap.String("endpoint", s.endpoint))
	return nil
}

// ensureToken authenticates if no token has been acquired yet.
func (s *Session) ensureToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return nil
	}
	return s.authenticateLocked(ctx)
}

// Headers returns the header set applied to authorized requests. The map is
// a copy; successive calls without an intervening Authenticate return equal
// maps.
func (s *Session) Headers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]string{
		"Authorization": fmt.Sprintf("%s token=%s", authScheme, s.token),
		"Accept":        "application/json",
	}
}

// Get issues an authorized GET and decodes the JSON response into out.
func (s *Session) Get(ctx context.Context, op *Operation, path string, out any) error {
	return s.do(ctx, op, http.MethodGet, path, nil, out)
}

// PostForm issues an authorized POST with a form-encoded body and decodes
// the JSON response into out.
func (s *Session) PostForm(ctx context.Context, op *Operation, path string, form url.Values, out any) error {
	return s.do(ctx, op, http.MethodPost, path, form, out)
}

// Delete issues an authorized DELETE and decodes the JSON response into out.
func (s *Session) Delete(ctx context.Context, op *Operation, path string, out any) error {
	return s.do(ctx, op, http.MethodDelete, path, nil, out)
}

// do executes one authorized request under the given operation's retry
// budget. A 401 response consumes one unit of budget: below the cap the
// session re-authenticates and resends the request once, at the cap the 401
// becomes a fatal *AuthError. Transport failures are returned without any
// retry.
func (s *Session) do(ctx context.Context, op *Operation, method, path string, form url.Values, out any) error {
	if err := s.ensureToken(ctx); err != nil {
		return err
	}

	resp, err := s.roundTrip(ctx, op, method, path, form)
	if err != nil {
		return err
	}

	for resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		op.authRetries++
		if op.authRetries >= maxAuthRetries {
			s.log.Warn("unauthorized after token refresh, giving up",
				zap.String("operation", op.Name),
				zap.String("operation_id", op.ID))
			return &AuthError{
				Reason: "unauthorized after token refresh",
				Err:    &StatusError{Method: method, Path: path, Code: http.StatusUnauthorized},
			}
		}

		s.log.Warn("token rejected, re-authenticating",
			zap.String("operation", op.Name),
			zap.String("operation_id", op.ID),
			zap.String("path", path))
		if err := s.Authenticate(ctx); err != nil {
			return err
		}

		resp, err = s.roundTrip(ctx, op, method, path, form)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		drain(resp)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// Some endpoints answer success with an empty body; leave out at
		// its zero value and let the caller classify that.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}

	return nil
}

// roundTrip builds and sends a single authorized request. The form body is
// re-encoded on every call so retries do not reuse a consumed reader.
func (s *Session) roundTrip(ctx context.Context, op *Operation, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	for k, v := range s.Headers() {
		req.Header.Set(k, v)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	s.metrics.RequestCompleted(method, resp.StatusCode)
	s.log.Debug("request completed",
		zap.String("operation", op.Name),
		zap.String("operation_id", op.ID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	return resp, nil
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
