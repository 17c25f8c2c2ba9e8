package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapquest/internal/metrics"
	"tapquest/internal/model"
	"tapquest/internal/repository"
	"tapquest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultValidationDelay is how long a social claim stays pending before
	// the finalizer settles it, standing in for external verification time.
	DefaultValidationDelay = 10 * time.Second

	defaultPollInterval = 2 * time.Second
	taskBatchSize       = 100
)

type QuestService struct {
	repo            QuestRepository
	notifier        ClaimNotifier
	validationDelay time.Duration
	pollInterval    time.Duration
}

func NewQuestService(repo QuestRepository, notifier ClaimNotifier, validationDelay time.Duration) *QuestService {
	if validationDelay <= 0 {
		validationDelay = DefaultValidationDelay
	}
	return &QuestService{
		repo:            repo,
		notifier:        notifier,
		validationDelay: validationDelay,
		pollInterval:    defaultPollInterval,
	}
}

func (s *QuestService) ListQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, error) {
	today := StartOfDayUTC(time.Now().UTC())
	quests, err := s.repo.ListQuestStatuses(ctx, telegramID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return quests, nil
}

// Claim runs the claim state machine for one (account, quest) pair. Tap-
// and points-based quests settle synchronously; social quests only take the
// pending lock here and leave the grant to the deferred finalizer.
func (s *QuestService) Claim(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error) {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	if quest.Nature == model.QuestSocial {
		return s.claimSocial(ctx, telegramID, quest)
	}
	return s.claimInGame(ctx, telegramID, quest)
}

func (s *QuestService) claimInGame(ctx context.Context, telegramID int64, quest *model.Quest) (*model.ClaimResult, error) {
	result, err := s.repo.ClaimInGameQuest(ctx, telegramID, quest.QuestID)
	if err != nil {
		var reqErr *repository.RequirementNotMetError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrQuestNotFound):
			return nil, ErrQuestNotFound
		case errors.As(err, &reqErr):
			return nil, &RequirementNotMetError{
				Nature:    quest.Nature,
				Shortfall: reqErr.Shortfall,
			}
		default:
			return nil, fmt.Errorf("failed to claim quest: %w", err)
		}
	}

	metrics.QuestClaims.WithLabelValues(string(quest.Nature)).Inc()
	return result, nil
}

func (s *QuestService) claimSocial(ctx context.Context, telegramID int64, quest *model.Quest) (*model.ClaimResult, error) {
	executeAt := time.Now().UTC().Add(s.validationDelay)

	err := s.repo.AddPendingSocialClaim(ctx, telegramID, quest.QuestID, executeAt)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrQuestAlreadyClaimed):
			return nil, ErrQuestAlreadyClaimed
		case errors.Is(err, repository.ErrClaimPending):
			return nil, ErrClaimInProgress
		default:
			return nil, fmt.Errorf("failed to add pending claim: %w", err)
		}
	}

	return &model.ClaimResult{
		State:  model.ClaimPending,
		Reward: quest.Reward,
	}, nil
}

// RunFinalizer polls the durable task queue and settles due social claims
// until the context is cancelled. It is the only writer that moves a claim
// out of the pending state, so request handling is never blocked by it.
func (s *QuestService) RunFinalizer(ctx context.Context) {
	log := logger.Logger()
	log.Info("social claim finalizer started",
		zap.Duration("poll_interval", s.pollInterval),
		zap.Duration("validation_delay", s.validationDelay))

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("social claim finalizer stopped")
			return
		case <-ticker.C:
			s.finalizeDue(ctx)
		}
	}
}

func (s *QuestService) finalizeDue(ctx context.Context) {
	log := logger.Logger()

	tasks, err := s.repo.DueSocialClaimTasks(ctx, time.Now().UTC(), taskBatchSize)
	if err != nil {
		log.Error("failed to fetch due claim tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		s.finalizeTask(ctx, task)
	}
}

func (s *QuestService) finalizeTask(ctx context.Context, task *model.SocialClaimTask) {
	log := logger.Logger()

	result, err := s.repo.FinalizeSocialClaim(ctx, task.UserTelegramID, task.QuestID)
	if err == nil {
		metrics.QuestClaims.WithLabelValues(string(model.QuestSocial)).Inc()
		log.Info("social quest claim finalized",
			zap.Int64("telegram_id", task.UserTelegramID),
			zap.String("quest_id", task.QuestID.String()))
		if s.notifier != nil {
			s.notifier.NotifyClaim(task.UserTelegramID, task.QuestID, true, result.Reward)
		}
		return
	}

	log.Warn("social quest finalization failed, compensating",
		zap.Int64("telegram_id", task.UserTelegramID),
		zap.String("quest_id", task.QuestID.String()),
		zap.Error(err))

	// The compensating transaction returns the pair to the unclaimed state
	// so the account is not stuck behind a dangling pending lock.
	if err := s.repo.CompensatePendingClaim(ctx, task.UserTelegramID, task.QuestID); err != nil {
		metrics.CompensationFailures.Inc()
		log.Warn("compensation failed, will retry on next poll",
			zap.Int64("telegram_id", task.UserTelegramID),
			zap.String("quest_id", task.QuestID.String()),
			zap.Error(err))
		return
	}

	metrics.ClaimCompensations.Inc()
	if s.notifier != nil {
		s.notifier.NotifyClaim(task.UserTelegramID, task.QuestID, false, 0)
	}
}

// StartOfDayUTC truncates t to the UTC day boundary used to stamp and look
// up the daily quest pool.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
