package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned on a failed login attempt. It carries no
// detail about which part of the credential was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages the account lifecycle and owns every secret-field write.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures the data required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a user with a freshly hashed password and a generated
// merchant identifier. Unique-field collisions surface as ErrDuplicate.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" || email == "" {
		return User{}, fmt.Errorf("username and email are required")
	}
	if input.Password == "" {
		return User{}, fmt.Errorf("password is required")
	}

	now := time.Now().UTC()
	user := User{
		ID:         uuid.New().String(),
		Username:   username,
		Email:      email,
		MerchantID: uuid.New().String(),
		Balance:    0,
		Role:       RoleUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Hash before commit; a primitive failure aborts the create entirely so
	// a plaintext or empty credential can never be persisted.
	if err := ApplyChanges(&user, Changes{Password: input.Password}); err != nil {
		return User{}, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// SetPin establishes the transaction PIN for an existing account. An empty
// PIN is a no-op: this path sets a PIN, it cannot clear one.
func (s *Service) SetPin(ctx context.Context, id, pin string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if pin == "" {
		return user, nil
	}

	if err := ApplyChanges(&user, Changes{PIN: pin}); err != nil {
		return User{}, err
	}

	if err := s.repo.UpdatePin(ctx, user.ID, user.PINHash); err != nil {
		return User{}, err
	}

	return user, nil
}

// ChangePassword re-hashes and stores a new password for the account.
func (s *Service) ChangePassword(ctx context.Context, id, password string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if password == "" {
		return User{}, fmt.Errorf("password is required")
	}

	if err := ApplyChanges(&user, Changes{Password: password}); err != nil {
		return User{}, err
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, user.PasswordHash); err != nil {
		return User{}, err
	}

	return user, nil
}

// VerifyLogin checks a password against the account found by username or
// email. A bad handle and a bad password produce the same error.
func (s *Service) VerifyLogin(ctx context.Context, handle, password string) (User, error) {
	user, err := s.repo.FindByHandle(ctx, strings.TrimSpace(handle))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	ok, err := VerifyPassword(user, password)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// VerifyPinFor checks a transaction PIN for the given account.
func (s *Service) VerifyPinFor(ctx context.Context, id, pin string) (bool, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return VerifyPin(user, pin)
}

// Get fetches an account by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByHandle fetches an account by username or email.
func (s *Service) GetByHandle(ctx context.Context, handle string) (User, error) {
	return s.repo.FindByHandle(ctx, strings.TrimSpace(handle))
}

// GetByMerchant fetches an account by its merchant identifier.
func (s *Service) GetByMerchant(ctx context.Context, merchantID string) (User, error) {
	return s.repo.FindByMerchantID(ctx, merchantID)
}

// List returns all accounts, for admin use.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Delete permanently removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
