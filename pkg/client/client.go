package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoToken         = errors.New("no token")
	ErrUnauthenticated = errors.New("authentication required")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken   = errors.New("username already taken")
)

// APIError is a non-2xx response the client has no sentinel for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskgate: %d %s", e.Status, e.Message)
}

// Token is a bearer token returned by Login.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Identity is the caller as reported by the server.
type Identity struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Client talks to a taskgate server. After a successful Login it attaches
// the token to every request it sends. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token *Token
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithToken seeds the client with a previously issued token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = &Token{Value: token} }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current token, or ErrNoToken before a login.
func (c *Client) Token() (*Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return nil, ErrNoToken
	}
	t := *c.token
	return &t, nil
}

func (c *Client) CreateUser(ctx context.Context, username, password string) error {
	return c.postJSON(ctx, "/createUser", credentials{username, password}, nil)
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	var token Token
	if err := c.postJSON(ctx, "/login", credentials{username, password}, &token); err != nil {
		return nil, err
	}
	if token.Value == "" {
		return nil, errors.New("login response carried no token")
	}

	c.mu.Lock()
	c.token = &token
	c.mu.Unlock()

	t := token
	return &t, nil
}

// Logout forgets the current token. Tokens are not revocable, so this is
// purely local.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// Me returns the identity the server binds to the current token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := c.do(req, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Do sends req with the current bearer token attached. The caller owns the
// response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token.Value)
	}
	c.mu.RUnlock()
	return c.httpClient.Do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("taskgate request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid taskgate response: %w", err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&body)

	switch {
	case res.StatusCode == http.StatusUnauthorized && body.Error == "invalid credentials":
		return ErrBadCredentials
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case res.StatusCode == http.StatusConflict:
		return ErrUsernameTaken
	}
	if body.Error == "" {
		body.Error = http.StatusText(res.StatusCode)
	}
	return &APIError{Status: res.StatusCode, Message: body.Error}
}
