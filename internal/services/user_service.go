package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/csmith1188/digipogs/internal/auth"
	"github.com/csmith1188/digipogs/internal/models"
	repo "github.com/csmith1188/digipogs/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService handles registration, login and PIN management for the
// accounts the ledger moves digipogs between.
type UserService struct {
	users repo.Users
	trx   repo.Transactions
	tm    *auth.TokenManager
}

func NewUserService(users repo.Users, trx repo.Transactions, tm *auth.TokenManager) *UserService {
	return &UserService{users: users, trx: trx, tm: tm}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{
		Username:    strings.TrimSpace(username),
		Email:       strings.TrimSpace(email),
		Permissions: models.StudentPermissions,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < 4 {
		return models.User{}, errors.New("password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(ctx, u.Username, u.Email, hash, u.Permissions)
}

// Login returns an access/refresh token pair for valid credentials.
func (s *UserService) Login(ctx context.Context, email, password string) (access, refresh string, err error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		slog.Error("login lookup failed", "err", err)
		return "", "", err
	}
	if auth.VerifyPassword(password, u.PasswordHash) != nil {
		return "", "", ErrInvalidCredentials
	}
	access, refresh, _, err = s.tm.GeneratePair(u.ID, u.Permissions)
	return access, refresh, err
}

func (s *UserService) SetPin(ctx context.Context, userID int64, pin string) error {
	if len(pin) < 4 {
		return errors.New("pin too short")
	}
	hash, err := auth.HashPIN(pin)
	if err != nil {
		return err
	}
	return s.users.SetPin(ctx, userID, hash)
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Transactions lists the ledger lines touching the user or the user's pools.
func (s *UserService) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.trx.ListForUser(ctx, userID)
}
