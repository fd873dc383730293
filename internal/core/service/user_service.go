package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const minPasswordLength = 8

var (
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

type UserService struct {
	users  port.UserRepository
	cost   int
	logger *zap.Logger
}

// NewUserService uses bcrypt.DefaultCost when cost is 0.
func NewUserService(users port.UserRepository, cost int, logger *zap.Logger) *UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, cost: cost, logger: logger}
}

func (s *UserService) Register(ctx context.Context, nama, email, password string) (*domain.User, error) {
	nama = strings.TrimSpace(nama)
	email = normalizeEmail(email)

	switch {
	case nama == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidRegistration)
	case len(password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}

	role, err := s.users.FindRoleByName(ctx, domain.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	if role == nil {
		return nil, fmt.Errorf("role %q is not defined", domain.RoleCustomer)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		Role:         *role,
		Nama:         nama,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.users.CreateUser(ctx, user)
	if errors.Is(err, port.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	s.logger.Info("user registered", zap.Int64("user_id", id))
	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
