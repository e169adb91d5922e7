// Package session owns the authentication lifecycle. The realtime
// connection exists exactly while a session is authenticated: login and
// restore bring it up, logout and auth failures tear it down.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"echosphere-client/internal/gateway"
	"echosphere-client/internal/localstore"
	"echosphere-client/internal/models"
	"echosphere-client/internal/rest"
	"echosphere-client/internal/store"
	"echosphere-client/internal/validator"
)

type Session struct {
	rest    *rest.Client
	gateway *gateway.Gateway
	local   *localstore.Store
	store   *store.Store
	sugar   *zap.SugaredLogger

	mutex sync.RWMutex
	user  *models.User
}

func New(restClient *rest.Client, gw *gateway.Gateway, local *localstore.Store, st *store.Store, sugar *zap.SugaredLogger) *Session {
	return &Session{
		rest:    restClient,
		gateway: gw,
		local:   local,
		store:   st,
		sugar:   sugar,
	}
}

func (s *Session) Authenticated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.user != nil
}

func (s *Session) User() (models.User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) Login(ctx context.Context, email string, password string) (models.User, error) {
	if err := validator.Login(email, password); err != nil {
		return models.User{}, err
	}

	auth, err := s.rest.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, auth)
}

func (s *Session) Signup(ctx context.Context, username string, email string, password string) (models.User, error) {
	if err := validator.Signup(username, email, password); err != nil {
		return models.User{}, err
	}

	auth, err := s.rest.Signup(ctx, username, email, password)
	if err != nil {
		return models.User{}, err
	}
	return s.establish(ctx, auth)
}

// Restore re-establishes the previous session from the persisted token.
// It reports false without error when there is nothing to restore or the
// token no longer works, which simply means the user must log in again.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	token, err := s.local.Token()
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	if tokenExpired(token) {
		s.sugar.Debug("persisted token expired, discarding")
		if err := s.local.ClearToken(); err != nil {
			return false, err
		}
		return false, nil
	}

	s.rest.SetToken(token)
	user, err := s.rest.Me(ctx)
	if errors.Is(err, rest.ErrUnauthorized) {
		s.sugar.Debug("persisted token rejected, discarding")
		s.Logout()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.finish(ctx, token, user)
	return true, nil
}

// Logout destroys the session everywhere: realtime connection, local
// collections, in-flight credentials, persisted token. Idempotent.
func (s *Session) Logout() {
	s.gateway.Disconnect()
	s.store.Reset()
	s.rest.SetToken("")
	if err := s.local.ClearToken(); err != nil {
		s.sugar.Error(err)
	}

	s.mutex.Lock()
	s.user = nil
	s.mutex.Unlock()
}

func (s *Session) UpdateProfile(ctx context.Context, updates rest.ProfileUpdate) (models.User, error) {
	user, err := s.rest.UpdateProfile(ctx, updates)
	if err != nil {
		return models.User{}, err
	}

	s.mutex.Lock()
	s.user = &user
	s.mutex.Unlock()
	return user, nil
}

func (s *Session) Theme() (string, error) {
	return s.local.Theme()
}

func (s *Session) SetTheme(theme string) error {
	return s.local.SetTheme(theme)
}

func (s *Session) establish(ctx context.Context, auth rest.AuthResponse) (models.User, error) {
	s.rest.SetToken(auth.Token)
	if err := s.local.SetToken(auth.Token); err != nil {
		s.sugar.Error(err)
	}
	s.finish(ctx, auth.Token, auth.User)
	return auth.User, nil
}

func (s *Session) finish(ctx context.Context, token string, user models.User) {
	s.mutex.Lock()
	s.user = &user
	s.mutex.Unlock()

	s.gateway.Connect(ctx, token)
}

// tokenExpired reads the exp claim without verifying the signature; the
// client has no secret and the backend re-checks anyway. An unparseable
// token counts as expired.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}
	return time.Now().UTC().After(expiry.Time.UTC())
}
