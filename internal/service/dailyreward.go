package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapquest/internal/model"
	"tapquest/internal/repository"
)

const (
	// BaseReward is the day-1 daily login reward; DailyBonuses stack on top
	// per cycle day, so the table is non-decreasing and capped at day 7.
	BaseReward = 500

	claimWindow  = 24 * time.Hour
	streakWindow = 48 * time.Hour
	cycleLength  = 7
)

var DailyBonuses = []int{0, 140, 280, 400, 500, 600, 700}

type DailyRewardService struct {
	repo DailyRewardRepository
}

func NewDailyRewardService(repo DailyRewardRepository) *DailyRewardService {
	return &DailyRewardService{
		repo: repo,
	}
}

// NextCycleDay computes the cycle transition for a claim at now. ok=false
// means the 24-hour window has not yet elapsed and remaining is the wait.
func NextCycleDay(current int, lastClaim *time.Time, now time.Time) (day int, remaining time.Duration, ok bool) {
	if lastClaim == nil {
		return 1, 0, true
	}

	elapsed := now.Sub(*lastClaim)
	switch {
	case elapsed < claimWindow:
		return 0, claimWindow - elapsed, false
	case elapsed < streakWindow:
		day = current + 1
		if day > cycleLength {
			day = 1
		}
		return day, 0, true
	default:
		return 1, 0, true
	}
}

func RewardForDay(day int) int {
	return BaseReward + DailyBonuses[day-1]
}

// GetStatus derives claim availability from the stored state without
// mutating it.
func (s *DailyRewardService) GetStatus(ctx context.Context, telegramID int64) (*model.DailyReward, error) {
	stored, err := s.repo.GetDailyReward(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get daily reward state: %w", err)
	}

	now := time.Now().UTC()
	status := &model.DailyReward{
		UserTelegramID:  telegramID,
		CycleDay:        stored.CycleDay,
		LastClaimedAt:   stored.LastClaimedAt,
		HasNeverClaimed: stored.LastClaimedAt == nil,
		Rewards:         make([]model.DayReward, cycleLength),
	}

	if status.HasNeverClaimed {
		status.IsAvailable = true
	} else {
		nextClaim := stored.LastClaimedAt.Add(claimWindow)
		status.NextClaimAt = &nextClaim
		// Availability comes from the same transition rule Claim applies, so
		// the report and the claim can never disagree at the window boundary.
		_, _, ok := NextCycleDay(stored.CycleDay, stored.LastClaimedAt, now)
		status.IsAvailable = ok
	}

	for i := 0; i < cycleLength; i++ {
		status.Rewards[i] = model.DayReward{
			Day:    i + 1,
			Reward: RewardForDay(i + 1),
		}
	}

	return status, nil
}

// Claim advances the cycle day per the 24/48-hour rule and grants the
// day's reward.
func (s *DailyRewardService) Claim(ctx context.Context, telegramID int64) (*model.DailyClaimResult, error) {
	stored, err := s.repo.GetDailyReward(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get daily reward state: %w", err)
	}

	now := time.Now().UTC()
	day, remaining, ok := NextCycleDay(stored.CycleDay, stored.LastClaimedAt, now)
	if !ok {
		return nil, &ClaimNotAvailableError{Remaining: remaining}
	}

	result, err := s.repo.ClaimDailyReward(ctx, telegramID, day, RewardForDay(day), stored.LastClaimedAt, now)
	if err != nil {
		if errors.Is(err, repository.ErrDailyRewardClaimed) {
			// Lost a race against a concurrent claim for the same account.
			return nil, &ClaimNotAvailableError{Remaining: claimWindow}
		}
		return nil, fmt.Errorf("failed to claim daily reward: %w", err)
	}

	return result, nil
}
