package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/repository"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// LoginOrCreate returns the user registered under username, creating one on
// first login. There is no credential check: identity is self-asserted by
// username alone.
func (s *UserService) LoginOrCreate(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, NewValidationError("username is required")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &domain.User{
		ID:        uuid.New().String(),
		Type:      domain.DocTypeUser,
		Username:  username,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, &domain.UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			CreatedAt: u.CreatedAt,
		})
	}

	return responses, nil
}
