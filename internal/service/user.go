package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fileshare-backend/internal/auth"
	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration, login and identity lookup.
type UserService struct {
	store        repository.UserStore
	tokenService *auth.TokenService
	logger       *zap.Logger
}

// NewUserService creates a user service.
func NewUserService(store repository.UserStore, tokenService *auth.TokenService, logger *zap.Logger) *UserService {
	return &UserService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("generating bcrypt hash", zap.Error(err))
		return nil, fmt.Errorf("processing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		s.logger.Error("creating user", zap.Error(err))
		return nil, fmt.Errorf("saving user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Generic failure, so callers cannot enumerate accounts.
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := s.tokenService.NewToken(user.ID)
	if err != nil {
		s.logger.Error("generating session token", zap.Error(err))
		return "", fmt.Errorf("generating token: %w", err)
	}

	return token, nil
}

// FindByEmail looks a user up for the share-with-user flow.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// GetByID fetches a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}
