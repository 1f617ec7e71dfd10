// Package client holds the ServiceNow session manager and the record
// transport it authenticates.
package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	tokenPath = "/oauth_token.do"

	// refreshMargin is how close to expiry a token may get before it is
	// proactively replaced. Keeps in-flight requests from straddling
	// expiry.
	refreshMargin = 5 * time.Minute

	// defaultTokenTTL applies when the token endpoint omits expires_in.
	defaultTokenTTL = time.Hour
)

// Credentials are everything needed to run the password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scope        string
}

// Session owns the OAuth token for one instance. All outbound calls go
// through EnsureAuthenticated, which re-acquires the token transparently
// before it expires. Safe for concurrent use.
type Session struct {
	conf     *oauth2.Config
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionHTTPClient overrides the HTTP client used for token
// requests. Its timeout applies to each authentication attempt.
func WithSessionHTTPClient(hc *http.Client) SessionOption {
	return func(s *Session) { s.http = hc }
}

// NewSession builds a session against instanceURL using creds. A nil
// logger discards.
func NewSession(instanceURL string, creds Credentials, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var scopes []string
	if creds.Scope != "" {
		scopes = []string{creds.Scope}
	}
	s := &Session{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(instanceURL, "/") + tokenPath,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			Scopes: scopes,
		},
		username: creds.Username,
		password: creds.Password,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate runs the password grant and replaces the held token.
// Never retries.
func (s *Session) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(ctx)
}

// EnsureAuthenticated returns a bearer token that is valid for at least
// refreshMargin, authenticating first if needed. Back-to-back calls
// inside the margin perform at most one network call.
func (s *Session) EnsureAuthenticated(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Add(refreshMargin).Before(s.expiry) {
		return s.token, nil
	}
	if err := s.authenticateLocked(ctx); err != nil {
		return "", err
	}
	return s.token, nil
}

// Token returns the current token and its expiry. ok is false when no
// token is held.
func (s *Session) Token() (token string, expiry time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.expiry, s.token != ""
}

func (s *Session) authenticateLocked(ctx context.Context) error {
	start := s.now()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)

	tok, err := s.conf.PasswordCredentialsToken(ctx, s.username, s.password)
	if err != nil {
		s.token = ""
		s.expiry = time.Time{}
		authErr := classifyTokenError(err)
		s.logger.InfoContext(ctx, "authenticate",
			"outcome", "error",
			"error", authErr.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return authErr
	}
	if tok.AccessToken == "" {
		s.token = ""
		s.expiry = time.Time{}
		return &AuthError{Description: "token endpoint returned an empty access token"}
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(defaultTokenTTL)
	}
	s.token = tok.AccessToken
	s.expiry = expiry

	s.logger.DebugContext(ctx, "authenticate",
		"outcome", "success",
		"expires_at", expiry,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		desc := re.ErrorDescription
		if desc == "" {
			desc = re.ErrorCode
		}
		if desc == "" {
			desc = strings.TrimSpace(string(re.Body))
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &AuthError{Status: status, Description: desc}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &TransportError{Op: "authenticate", Err: err}
	}
	return &AuthError{Description: err.Error()}
}
