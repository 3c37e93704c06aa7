package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort is what the service needs from persistence.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Deactivate(ctx context.Context, id int64) error
}

// Service manages operator accounts.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput creates a user.
type CreateInput struct {
	Username string
	FullName string
	Role     string
	Password string
}

// UpdateInput patches a user. A nil field is left untouched; a non-nil
// Password is re-hashed.
type UpdateInput struct {
	Username *string
	FullName *string
	Role     *string
	Active   *bool
	Password *string
}

// Create hashes the password and inserts the user as active.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Username:     in.Username,
		FullName:     in.FullName,
		Role:         in.Role,
		Active:       true,
		PasswordHash: string(hash),
	})
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = string(hash)
	}
	return s.repo.Update(ctx, u)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Deactivate disables login without removing the account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
