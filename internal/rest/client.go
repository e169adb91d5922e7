package rest

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

	"go.uber.org/zap"

	"echosphere-client/internal/models"
)

// ErrUnauthorized is matched with errors.Is against any 401 response so
// callers can force a logout without inspecting status codes themselves.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the HTTP status and the backend's "detail" text, which
// is surfaced verbatim to the user when present.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the EchoSphere backend under its /api prefix. It is the
// durable path for every state-changing action; the realtime channel is
// best effort on top of it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sugar      *zap.SugaredLogger

	mutex sync.RWMutex
	token string
}

func NewClient(baseURL string, sugar *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		sugar:      sugar,
	}
}

// SetHTTPClient replaces the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) SetToken(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}

		var detail struct {
			Detail string `json:"detail"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&detail); decodeErr == nil {
			apiErr.Detail = detail.Detail
		}

		c.sugar.Debugf("%s %s failed: %v", req.Method, req.URL.Path, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AuthResponse is the login/signup response shape.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email string, password string) (AuthResponse, error) {
	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var auth AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &auth)
	return auth, err
}

func (c *Client) Signup(ctx context.Context, username string, email string, password string) (AuthResponse, error) {
	type signupRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var auth AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", signupRequest{Username: username, Email: email, Password: password}, &auth)
	return auth, err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user)
	return user, err
}

// ProfileUpdate carries only the fields to change; empty fields are left
// untouched by the backend.
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Banner   string `json:"banner,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Status   string `json:"status,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, updates ProfileUpdate) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPut, "/auth/profile", updates, &user)
	return user, err
}
