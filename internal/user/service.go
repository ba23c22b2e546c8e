package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/greenplate/nutricoach/internal/identity"
	"github.com/greenplate/nutricoach/internal/user/entity"
	userrepo "github.com/greenplate/nutricoach/internal/user/repo"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserNotFound   = errors.New("user not found")
)

// Store is the repository surface the service needs; the sqlx repo satisfies
// it, tests inject a fake.
type Store interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName *string) error
	UpdateRole(ctx context.Context, id int64, role identity.Role) error
}

// UserService orchestrates registration and the password login fallback.
// The primary login path lives with the external provider; this service
// covers accounts that registered directly with a password.
type UserService struct {
	store  Store
	hasher PasswordHasher
	tokens *identity.TokenCodec
}

func NewUserService(store Store, hasher PasswordHasher, tokens *identity.TokenCodec) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{store: store, hasher: hasher, tokens: tokens}
}

// Register creates a password-backed account at the lowest privilege tier.
func (s *UserService) Register(ctx context.Context, email, password string, firstName, lastName *string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Create(ctx, &entity.User{
		Email:        email,
		PasswordHash: &hash,
		Role:         identity.RoleClient,
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login checks the password and mints a self-issued token on success.
// Missing user and wrong password collapse into ErrBadCredentials to avoid
// account enumeration.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNoAccount) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, err
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		// provider-only account, no password login
		return "", nil, ErrBadCredentials
	}
	if !s.hasher.Verify(*u.PasswordHash, password) {
		return "", nil, ErrBadCredentials
	}
	token, err := s.tokens.Mint(u.ID, u.Email, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Get fetches a user by internal id.
func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNoAccount) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile updates name fields on the caller's own row.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, firstName, lastName *string) error {
	return s.store.UpdateProfile(ctx, id, firstName, lastName)
}

// SetRole assigns a role; exposed to admin routes only.
func (s *UserService) SetRole(ctx context.Context, id int64, role identity.Role) error {
	return s.store.UpdateRole(ctx, id, role)
}
