package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// Service performs credential checks and token issuance.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// LoginResult carries the issued token and the authenticated identity.
type LoginResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login verifies the password and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	cred, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(cred.ID, cred.Username, cred.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, UserID: cred.ID, Username: cred.Username, Role: cred.Role}, nil
}
