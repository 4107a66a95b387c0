package services

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"blog-admin/pkg/logging"
	"blog-admin/pkg/models"
)

const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// Authenticator is the part of AuthService the session store needs.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthStore holds the signed-in user and mirrors it into Storage so the
// session survives restarts (CLI) or requests (web console).
type AuthStore struct {
	mu      sync.RWMutex
	storage Storage
	auth    Authenticator
	logger  logging.Logger
	now     func() time.Time
	state   models.AuthState
}

func NewAuthStore(storage Storage, auth Authenticator, logger logging.Logger) *AuthStore {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &AuthStore{
		storage: storage,
		auth:    auth,
		logger:  logger,
		now:     time.Now,
		state:   models.AuthState{Loading: true},
	}
}

// Initialize restores the session from storage. It never fails: unusable
// stored data simply leaves the store signed out.
func (s *AuthStore) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, hasToken := s.storage.Get(StorageKeyToken)
	rawUser, hasUser := s.storage.Get(StorageKeyUser)
	if !hasToken || !hasUser || token == "" {
		s.state = models.AuthState{}
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.WithContext(ctx).Error("failed to restore user info", "error", err)
		s.remove(StorageKeyToken)
		s.state = models.AuthState{}
		return
	}

	if exp, ok := tokenExpiry(token); ok && !exp.After(s.now()) {
		s.logger.WithContext(ctx).Info("stored token expired", "user_id", user.ID, "expired_at", exp)
		s.remove(StorageKeyToken)
		s.remove(StorageKeyUser)
		s.state = models.AuthState{}
		return
	}

	s.state = models.AuthState{IsAuthenticated: true, User: &user, Token: token}
}

// Login authenticates against the backend and persists the result. On
// failure the current state is left untouched and the error returned as is.
func (s *AuthStore) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(StorageKeyToken, resp.Token); err != nil {
		return err
	}
	if err := s.storage.Set(StorageKeyUser, string(rawUser)); err != nil {
		return err
	}

	user := resp.User
	s.state = models.AuthState{IsAuthenticated: true, User: &user, Token: resp.Token}
	s.logger.WithContext(ctx).Info("user logged in", "user_id", user.ID, "username", user.Username)
	return nil
}

// Logout forgets the session.
func (s *AuthStore) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	errToken := s.storage.Remove(StorageKeyToken)
	errUser := s.storage.Remove(StorageKeyUser)
	s.state = models.AuthState{}
	if errToken != nil {
		return errToken
	}
	return errUser
}

// ClearCredentials is the 401 hook: it drops the session and logs why.
func (s *AuthStore) ClearCredentials() {
	if err := s.Logout(); err != nil {
		s.logger.Error("failed to clear credentials", "error", err)
		return
	}
	s.logger.Warn("credentials cleared after unauthorized response")
}

// State returns a copy of the current session snapshot.
func (s *AuthStore) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// User returns the signed-in user or nil.
func (s *AuthStore) User() *models.User {
	return s.State().User
}

// Token satisfies oauth2.TokenSource so the Client can read the bearer
// token on every call.
func (s *AuthStore) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.IsAuthenticated || s.state.Token == "" {
		return nil, ErrNotAuthenticated
	}
	tok := &oauth2.Token{AccessToken: s.state.Token, TokenType: "Bearer"}
	if exp, ok := tokenExpiry(s.state.Token); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

var _ oauth2.TokenSource = (*AuthStore)(nil)

func (s *AuthStore) remove(key string) {
	if err := s.storage.Remove(key); err != nil {
		s.logger.Error("failed to remove session key", "key", key, "error", err)
	}
}

// tokenExpiry reads the exp claim of a JWT without verifying it; the
// backend stays the authority on validity. Opaque tokens report false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
