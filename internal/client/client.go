// Package client is an HTTP client for the lingocode API that owns the
// session token pair. An expired access token is refreshed once, shared by
// all concurrent callers, and the failed request is retried once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Rrens/lingocode/internal/domain"
)

// DefaultTimeout bounds every network call made by the client
const DefaultTimeout = 10 * time.Second

// ErrUnauthenticated means there is no usable session; the caller must log in again
var ErrUnauthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the API on behalf of one user
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	store      TokenStore
	refreshes  singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the API at baseURL
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticatedRequest sends a bearer-authenticated request and decodes a 2xx
// body into out. A TOKEN_EXPIRED rejection triggers at most one refresh and
// one retry. Any other 401, or a failed refresh, clears the stored session
// and returns ErrUnauthenticated.
func (c *Client) AuthenticatedRequest(ctx context.Context, method, path string, in, out any) error {
	session, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Token == "" {
		return ErrUnauthenticated
	}

	err = c.do(ctx, method, path, session.Token, in, out)
	if !isUnauthorized(err) {
		return err
	}
	if !isTokenExpired(err) {
		c.clear(ctx)
		return ErrUnauthenticated
	}

	fresh, err := c.refresh(ctx, session.Token)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, path, fresh.Token, in, out)
	if isUnauthorized(err) {
		c.clear(ctx)
		return ErrUnauthenticated
	}
	return err
}

// refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one in-flight exchange. A caller whose stale token has
// already been replaced gets the stored session without a new exchange.
func (c *Client) refresh(ctx context.Context, staleToken string) (*Session, error) {
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		// Detached from the first caller so its cancellation does not fail the others
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		current, err := c.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if current == nil || current.RefreshToken == "" {
			c.clear(ctx)
			return nil, ErrUnauthenticated
		}
		if current.Token != staleToken {
			return current, nil
		}

		var pair domain.TokenPair
		err = c.do(ctx, http.MethodPost, "/refresh-token", "", domain.RefreshRequest{RefreshToken: current.RefreshToken}, &pair)
		if err != nil {
			log.Debug().Err(err).Msg("session refresh failed")
			c.clear(ctx)
			return nil, ErrUnauthenticated
		}

		next := &Session{
			Token:        pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         current.User,
		}
		if err := c.store.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (c *Client) clear(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear session")
	}
}

// do performs one HTTP round trip with the client timeout
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error   string            `json:"error"`
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Error,
		Details: body.Details,
	}
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func isTokenExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == domain.CodeTokenExpired
}

// Signup registers an account and stores the new session
func (c *Client) Signup(ctx context.Context, email, password, name string) (*domain.User, error) {
	return c.startSession(ctx, "/signup", domain.SignupRequest{Email: email, Password: password, Name: name})
}

// Login authenticates and stores the new session
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return c.startSession(ctx, "/login", domain.LoginRequest{Email: email, Password: password})
}

func (c *Client) startSession(ctx context.Context, path string, in any) (*domain.User, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, "", in, &resp); err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, &Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return resp.User, nil
}

// Logout revokes the stored refresh token and clears the session. The local
// session is cleared even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	session, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	defer c.clear(ctx)

	if session == nil || session.RefreshToken == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/logout", "", domain.RefreshRequest{RefreshToken: session.RefreshToken}, nil)
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// DeleteAccount deletes the authenticated user and clears the session
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.AuthenticatedRequest(ctx, http.MethodDelete, "/me", nil, nil); err != nil {
		return err
	}
	c.clear(ctx)
	return nil
}

// GetProfile returns the authenticated user's profile
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var resp struct {
		Profile *domain.Profile `json:"profile"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// UpdateProfile applies a partial profile update
func (c *Client) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, error) {
	var resp struct {
		Profile *domain.Profile `json:"profile"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodPut, "/profile", update, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// History returns generation history, newest first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	path := "/history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var resp struct {
		History []domain.HistoryEntry `json:"history"`
	}
	if err := c.AuthenticatedRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// Process generates code or a website
func (c *Client) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResponse, error) {
	var resp domain.ProcessResponse
	if err := c.AuthenticatedRequest(ctx, http.MethodPost, "/process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateAppPlan generates an application blueprint
func (c *Client) GenerateAppPlan(ctx context.Context, req domain.AppPlanRequest) (*domain.AppPlanResponse, error) {
	var resp domain.AppPlanResponse
	if err := c.AuthenticatedRequest(ctx, http.MethodPost, "/generate_app_plan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateCodeFromPlan generates code from an app plan
func (c *Client) GenerateCodeFromPlan(ctx context.Context, req domain.CodeFromPlanRequest) (*domain.CodeFromPlanResponse, error) {
	var resp domain.CodeFromPlanResponse
	if err := c.AuthenticatedRequest(ctx, http.MethodPost, "/generate-code-from-plan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
