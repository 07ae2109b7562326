package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	crispsession "github.com/COS301-SE-2025/CRISP-sub004"
)

const (
	loginPath       = "/api/auth/login/"
	registerPath    = "/api/auth/register/"
	unreadCountPath = "/api/notifications/unread-count/"

	defaultTimeout = 15 * time.Second
)

// Client talks to the CRISP backend. It implements both
// crispsession.AuthAPI and crispsession.NotificationSource.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token func() string
}

// NewClient returns a Client for the backend at baseURL. httpClient may be
// nil; a client with a 15 second timeout is used then.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// SetTokenSource registers the access-token supplier used for authenticated
// calls (the notification poll). Typically wired to the engine's session
// after Build.
func (c *Client) SetTokenSource(fn func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = fn
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token()
}

// authPayload is the success shape of both auth endpoints.
type authPayload struct {
	User   crispsession.UserRecord `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

// errorPayload covers the message spellings the backend uses.
type errorPayload struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func (p errorPayload) text() string {
	switch {
	case p.Message != "":
		return p.Message
	case p.Detail != "":
		return p.Detail
	case p.Error != "":
		return p.Error
	}
	return ""
}

// Login exchanges credentials for a session payload.
func (c *Client) Login(ctx context.Context, creds crispsession.Credentials) (*crispsession.AuthResult, error) {
	body := map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	}
	return c.postAuth(ctx, loginPath, body, "Invalid username or password")
}

// Register creates an account and returns the same payload shape as Login.
func (c *Client) Register(ctx context.Context, input crispsession.RegisterInput) (*crispsession.AuthResult, error) {
	body := map[string]string{
		"username":         input.Username,
		"email":            input.Email,
		"password":         input.Password,
		"confirm_password": input.ConfirmPassword,
		"organization":     input.Organization,
	}
	return c.postAuth(ctx, registerPath, body, "Registration failed")
}

func (c *Client) postAuth(ctx context.Context, path string, body any, fallback string) (*crispsession.AuthResult, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body, "")
	if err != nil {
		// Transport failure, not a rejection: generic message, no retry.
		return nil, &crispsession.AuthError{Message: "Unable to reach the server. Please try again."}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &crispsession.AuthError{Message: fallback}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ep errorPayload
		_ = json.Unmarshal(raw, &ep)
		msg := ep.text()
		if msg == "" {
			msg = fallback
		}
		return nil, &crispsession.AuthError{Message: msg}
	}

	var payload authPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &crispsession.AuthError{Message: fallback}
	}
	return &crispsession.AuthResult{
		User:         payload.User,
		AccessToken:  payload.Tokens.Access,
		RefreshToken: payload.Tokens.Refresh,
	}, nil
}

// UnreadCount polls the unread-notification counter.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, unreadCountPath, nil, c.accessToken())
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unread count: status %d", resp.StatusCode)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return payload.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, bearer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.http.Do(req)
}
