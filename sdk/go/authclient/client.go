// Package authclient is a Go client for authsvc. Services that accept authsvc
// tokens call Verify, which asks authsvc for the token's user so that logout
// and re-login revocations are honoured.
package authclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var (
	// ErrUnauthorized is returned when authsvc rejects the credentials or token.
	ErrUnauthorized = errors.New("authsvc: unauthorized")
	// ErrNotFound is returned for an unknown email.
	ErrNotFound = errors.New("authsvc: not found")
	// ErrPreconditionFailed is returned when sign-up input breaks a rule.
	ErrPreconditionFailed = errors.New("authsvc: precondition failed")
	// ErrThrottled is returned when the caller is rate limited.
	ErrThrottled = errors.New("authsvc: too many requests")
)

// User mirrors the user object returned by authsvc.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Bio       string    `json:"bio"`
	Role      string    `json:"role"`
	TeamName  string    `json:"teamName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	JWT  string `json:"jwt"`
	User *User  `json:"user"`
}

// SignUpInput carries the registration fields.
type SignUpInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	TeamName  string `json:"teamName"`
}

// APIError is a non-2xx response from authsvc.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsvc: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusPreconditionFailed:
		return ErrPreconditionFailed
	case http.StatusTooManyRequests:
		return ErrThrottled
	}
	return nil
}

// Client talks to one authsvc deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithVerifyCache caches successful Verify results for ttl. A revoked token
// may keep verifying for up to ttl. Zero disables the cache.
func WithVerifyCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = gocache.New(ttl, 2*ttl)
		} else {
			c.cache = nil
		}
	}
}

// New creates a client for the authsvc instance at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignUp registers a user and returns its first token.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout revokes token and drops it from the verify cache.
func (c *Client) Logout(ctx context.Context, token string) error {
	if c.cache != nil {
		c.cache.Delete(cacheKey(token))
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Verify returns the user a token belongs to, or ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	key := cacheKey(token)
	if c.cache != nil {
		if u, ok := c.cache.Get(key); ok {
			return u.(*User), nil
		}
	}

	var u User
	if err := c.do(ctx, http.MethodGet, "/user/me", token, nil, &u); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetDefault(key, &u)
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// cacheKey avoids keeping raw tokens as map keys.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
