package service

import (
	"context"
	"testing"
	"time"

	"tapquest/internal/model"
	"tapquest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBuildDailyQuests(t *testing.T) {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	quests := BuildDailyQuests(DefaultQuestTemplates, day)

	assert.Len(t, quests, len(DefaultQuestTemplates))

	seen := make(map[uuid.UUID]bool)
	for i, q := range quests {
		assert.NotEqual(t, uuid.Nil, q.QuestID)
		assert.False(t, seen[q.QuestID], "quest ids must be unique")
		seen[q.QuestID] = true

		assert.Equal(t, DefaultQuestTemplates[i].Title, q.Title)
		assert.Equal(t, DefaultQuestTemplates[i].Nature, q.Nature)
		assert.Equal(t, DefaultQuestTemplates[i].Reward, q.Reward)
		assert.Equal(t, day, q.GenerationDate)
		assert.Equal(t, day.Add(24*time.Hour-time.Second), q.ExpiresAt)
	}
}

func TestDefaultQuestTemplatesCoverAllNatures(t *testing.T) {
	byNature := make(map[model.QuestNature]int)
	for _, tpl := range DefaultQuestTemplates {
		byNature[tpl.Nature]++
		if tpl.Nature == model.QuestSocial {
			assert.Zero(t, tpl.Target)
		} else {
			assert.Positive(t, tpl.Target)
		}
	}

	assert.Positive(t, byNature[model.QuestTapBased])
	assert.Positive(t, byNature[model.QuestPointsBased])
	assert.Positive(t, byNature[model.QuestSocial])
}

func TestMaintenanceScheduler_RunSweeps(t *testing.T) {
	t.Run("All sweeps run on a fresh day", func(t *testing.T) {
		mockRepo := &mocks.MockMaintenanceRepository{}

		mockRepo.On("ResetDailyCounters", mock.Anything).Return(int64(42), nil)
		mockRepo.On("DeleteExpiredQuests", mock.Anything, mock.Anything).Return(int64(9), nil)
		mockRepo.On("SeedDailyQuests", mock.Anything, mock.MatchedBy(func(quests []*model.Quest) bool {
			return len(quests) == len(DefaultQuestTemplates)
		}), mock.Anything).Return(true, nil)

		scheduler := NewMaintenanceScheduler(mockRepo, nil)
		scheduler.RunSweeps(context.Background())

		mockRepo.AssertExpectations(t)
	})

	t.Run("Rerun on an already seeded day duplicates nothing", func(t *testing.T) {
		mockRepo := &mocks.MockMaintenanceRepository{}

		mockRepo.On("ResetDailyCounters", mock.Anything).Return(int64(0), nil)
		mockRepo.On("DeleteExpiredQuests", mock.Anything, mock.Anything).Return(int64(0), nil)
		mockRepo.On("SeedDailyQuests", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		scheduler := NewMaintenanceScheduler(mockRepo, nil)
		scheduler.RunSweeps(context.Background())

		mockRepo.AssertExpectations(t)
	})

	t.Run("Counter reset failure does not stop the reseed", func(t *testing.T) {
		mockRepo := &mocks.MockMaintenanceRepository{}

		mockRepo.On("ResetDailyCounters", mock.Anything).Return(int64(0), assert.AnError)
		mockRepo.On("DeleteExpiredQuests", mock.Anything, mock.Anything).Return(int64(0), nil)
		mockRepo.On("SeedDailyQuests", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		scheduler := NewMaintenanceScheduler(mockRepo, nil)
		scheduler.RunSweeps(context.Background())

		mockRepo.AssertExpectations(t)
	})

	t.Run("Cleanup failure skips the reseed", func(t *testing.T) {
		mockRepo := &mocks.MockMaintenanceRepository{}

		mockRepo.On("ResetDailyCounters", mock.Anything).Return(int64(0), nil)
		mockRepo.On("DeleteExpiredQuests", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		scheduler := NewMaintenanceScheduler(mockRepo, nil)
		scheduler.RunSweeps(context.Background())

		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "SeedDailyQuests", mock.Anything, mock.Anything, mock.Anything)
	})
}
