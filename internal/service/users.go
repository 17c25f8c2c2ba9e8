package service

import (
	"context"
	"errors"
	"fmt"

	"tapquest/internal/model"
	"tapquest/internal/repository"
)

const leaderboardLimit = 100

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, user *model.User, inviterID *int64) error {
	if user.TelegramID <= 0 {
		return ErrInvalidInput
	}

	err := s.repo.CreateUser(ctx, user, inviterID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// AddTaps applies a batch of taps as a single atomic increment. Rejecting
// non-positive increments here keeps the counters monotone within a day.
func (s *UserService) AddTaps(ctx context.Context, telegramID int64, increment int) (*model.TapResult, error) {
	if increment <= 0 {
		return nil, ErrInvalidInput
	}

	result, err := s.repo.AddTaps(ctx, telegramID, increment)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add taps: %w", err)
	}

	return result, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}
