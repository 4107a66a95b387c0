package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"blog-admin/pkg/models"
)

var errMissingID = errors.New("id is required")

// AuthService calls the backend register and login endpoints.
type AuthService struct {
	client  *Client
	prehash bool
}

type AuthOption func(*AuthService)

// WithPasswordPrehash sends the SHA-256 hex digest instead of the raw
// password, for backends provisioned that way. It applies to register and
// login alike.
func WithPasswordPrehash(enabled bool) AuthOption {
	return func(s *AuthService) { s.prehash = enabled }
}

func NewAuthService(client *Client, opts ...AuthOption) *AuthService {
	s := &AuthService{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}
	req.Password = s.password(req.Password)

	var user models.User
	if err := s.client.Post(ctx, PathAuthRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}
	req.Password = s.password(req.Password)

	var resp models.LoginResponse
	if err := s.client.Post(ctx, PathAuthLogin, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, wrapBackend(&APIError{Code: 200, Message: "login response carried no token"})
	}
	return &resp, nil
}

func (s *AuthService) password(raw string) string {
	if !s.prehash {
		return raw
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
