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

	"go.uber.org/zap"

	"movietrack/internal/model"
)

// ErrNotAuthenticated is returned by calls that need a token when none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether err is a 401 or 403 from the server.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Session holds the bearer token and the current user for one client.
type Session struct {
	baseURL string
	store   TokenStore
	log     *zap.Logger
	client  *http.Client

	mu    sync.RWMutex
	token string
	user  *model.User
}

// NewSession builds a session against baseURL, which includes the API prefix
// (e.g. http://localhost:5000/api).
func NewSession(baseURL string, store TokenStore, log *zap.Logger) *Session {
	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		log:     log.Named("session"),
	}
	s.client = &http.Client{
		Timeout:   30 * time.Second,
		Transport: &bearerTransport{session: s, base: http.DefaultTransport},
	}
	return s
}

// HTTPClient returns a client that attaches the bearer header to every
// request while a token is held.
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

// Restore loads a stored token and validates it with GET /me. A token the
// server rejects logs the session out. It reports whether the session is
// authenticated afterwards.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	token, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	s.setToken(token)
	if _, err := s.Me(ctx); err != nil {
		s.log.Info("stored session rejected", zap.Error(err))
		if logoutErr := s.Logout(); logoutErr != nil {
			s.log.Warn("clear session", zap.Error(logoutErr))
		}
		if IsAuthError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, email, password string) (*model.User, error) {
	var resp model.LoginResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := s.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response without token")
	}

	if err := s.store.Save(resp.Token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.mu.Unlock()
	return resp.User, nil
}

// Register creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	req := model.RegisterRequest{Username: username, Email: email, Password: password}
	if err := s.do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout forgets the token in memory and in the store.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Session) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) setUser(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// do sends a JSON request and decodes a JSON response into out.
func (s *Session) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errResp.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// bearerTransport reads the token per request so a logout takes effect
// immediately.
type bearerTransport struct {
	session *Session
	base    http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.session.currentToken()
	if token == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}
