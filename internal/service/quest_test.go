package service

import (
	"context"
	"testing"
	"time"

	"tapquest/internal/model"
	"tapquest/internal/repository"
	"tapquest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestQuestService_Claim(t *testing.T) {
	tapQuestID := uuid.New()
	socialQuestID := uuid.New()

	tapQuest := &model.Quest{
		QuestID: tapQuestID,
		Title:   "Daily Tapping Frenzy",
		Nature:  model.QuestTapBased,
		Target:  100,
		Reward:  50,
	}
	socialQuest := &model.Quest{
		QuestID: socialQuestID,
		Title:   "Social Sharer",
		Nature:  model.QuestSocial,
		Reward:  150,
	}

	tests := []struct {
		name            string
		telegramID      int64
		questID         uuid.UUID
		setupMocks      func(mockRepo *mocks.MockQuestRepository)
		expectedError   error
		expectShortfall bool
		checkResult     func(*testing.T, *model.ClaimResult)
	}{
		{
			name:       "Unknown quest",
			telegramID: 123,
			questID:    tapQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, tapQuestID).
					Return(nil, repository.ErrQuestNotFound)
			},
			expectedError: ErrQuestNotFound,
		},
		{
			name:       "Tap quest grants synchronously",
			telegramID: 123,
			questID:    tapQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, tapQuestID).
					Return(tapQuest, nil)
				mockRepo.On("ClaimInGameQuest", mock.Anything, int64(123), tapQuestID).
					Return(&model.ClaimResult{
						State:       model.ClaimGranted,
						Reward:      50,
						TotalPoints: 1050,
					}, nil)
			},
			checkResult: func(t *testing.T, result *model.ClaimResult) {
				assert.Equal(t, model.ClaimGranted, result.State)
				assert.Equal(t, 50, result.Reward)
				assert.Equal(t, 1050, result.TotalPoints)
			},
		},
		{
			name:       "Tap quest requirement not met",
			telegramID: 123,
			questID:    tapQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, tapQuestID).
					Return(tapQuest, nil)
				mockRepo.On("ClaimInGameQuest", mock.Anything, int64(123), tapQuestID).
					Return(nil, &repository.RequirementNotMetError{
						Nature:    string(model.QuestTapBased),
						Shortfall: 20,
					})
			},
			expectShortfall: true,
		},
		{
			name:       "Concurrent claimer loses the quest row",
			telegramID: 124,
			questID:    tapQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, tapQuestID).
					Return(tapQuest, nil)
				mockRepo.On("ClaimInGameQuest", mock.Anything, int64(124), tapQuestID).
					Return(nil, repository.ErrQuestNotFound)
			},
			expectedError: ErrQuestNotFound,
		},
		{
			name:       "Social quest goes pending",
			telegramID: 123,
			questID:    socialQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, socialQuestID).
					Return(socialQuest, nil)
				mockRepo.On("AddPendingSocialClaim", mock.Anything, int64(123), socialQuestID,
					mock.MatchedBy(func(executeAt time.Time) bool {
						return executeAt.After(time.Now().UTC())
					})).Return(nil)
			},
			checkResult: func(t *testing.T, result *model.ClaimResult) {
				assert.Equal(t, model.ClaimPending, result.State)
				assert.Equal(t, 150, result.Reward)
				assert.Zero(t, result.TotalPoints)
			},
		},
		{
			name:       "Social quest already claimed",
			telegramID: 123,
			questID:    socialQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, socialQuestID).
					Return(socialQuest, nil)
				mockRepo.On("AddPendingSocialClaim", mock.Anything, int64(123), socialQuestID, mock.Anything).
					Return(repository.ErrQuestAlreadyClaimed)
			},
			expectedError: ErrQuestAlreadyClaimed,
		},
		{
			name:       "Social quest claim already pending",
			telegramID: 123,
			questID:    socialQuestID,
			setupMocks: func(mockRepo *mocks.MockQuestRepository) {
				mockRepo.On("GetQuestByID", mock.Anything, socialQuestID).
					Return(socialQuest, nil)
				mockRepo.On("AddPendingSocialClaim", mock.Anything, int64(123), socialQuestID, mock.Anything).
					Return(repository.ErrClaimPending)
			},
			expectedError: ErrClaimInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockQuestRepository{}
			tt.setupMocks(mockRepo)

			service := NewQuestService(mockRepo, nil, DefaultValidationDelay)
			result, err := service.Claim(context.Background(), tt.telegramID, tt.questID)

			if tt.expectShortfall {
				var reqErr *RequirementNotMetError
				assert.ErrorAs(t, err, &reqErr)
				return
			}

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, result)
			if tt.checkResult != nil {
				tt.checkResult(t, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestQuestService_RequirementShortfallMessage(t *testing.T) {
	questID := uuid.New()
	quest := &model.Quest{
		QuestID: questID,
		Nature:  model.QuestTapBased,
		Target:  100,
		Reward:  50,
	}

	mockRepo := &mocks.MockQuestRepository{}
	mockRepo.On("GetQuestByID", mock.Anything, questID).Return(quest, nil)
	mockRepo.On("ClaimInGameQuest", mock.Anything, int64(123), questID).
		Return(nil, &repository.RequirementNotMetError{
			Nature:    string(model.QuestTapBased),
			Shortfall: 20,
		})

	service := NewQuestService(mockRepo, nil, DefaultValidationDelay)
	_, err := service.Claim(context.Background(), 123, questID)

	var reqErr *RequirementNotMetError
	assert.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 20, reqErr.Shortfall)
	assert.Equal(t, model.QuestTapBased, reqErr.Nature)
	assert.Contains(t, reqErr.Error(), "20 more taps")
}

func TestQuestService_FinalizeTask(t *testing.T) {
	questID := uuid.New()
	task := &model.SocialClaimTask{
		UserTelegramID: 123,
		QuestID:        questID,
		ExecuteAt:      time.Now().UTC().Add(-time.Second),
	}

	t.Run("Successful finalization notifies the client", func(t *testing.T) {
		mockRepo := &mocks.MockQuestRepository{}
		notifier := &mocks.MockClaimNotifier{}

		mockRepo.On("FinalizeSocialClaim", mock.Anything, int64(123), questID).
			Return(&model.ClaimResult{
				State:       model.ClaimGranted,
				Reward:      150,
				TotalPoints: 1150,
			}, nil)
		notifier.On("NotifyClaim", int64(123), questID, true, 150).Return()

		service := NewQuestService(mockRepo, notifier, DefaultValidationDelay)
		service.finalizeTask(context.Background(), task)

		mockRepo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Failed finalization compensates and notifies", func(t *testing.T) {
		mockRepo := &mocks.MockQuestRepository{}
		notifier := &mocks.MockClaimNotifier{}

		mockRepo.On("FinalizeSocialClaim", mock.Anything, int64(123), questID).
			Return(nil, assert.AnError)
		mockRepo.On("CompensatePendingClaim", mock.Anything, int64(123), questID).
			Return(nil)
		notifier.On("NotifyClaim", int64(123), questID, false, 0).Return()

		service := NewQuestService(mockRepo, notifier, DefaultValidationDelay)
		service.finalizeTask(context.Background(), task)

		mockRepo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Failed compensation is left for the next poll", func(t *testing.T) {
		mockRepo := &mocks.MockQuestRepository{}
		notifier := &mocks.MockClaimNotifier{}

		mockRepo.On("FinalizeSocialClaim", mock.Anything, int64(123), questID).
			Return(nil, assert.AnError)
		mockRepo.On("CompensatePendingClaim", mock.Anything, int64(123), questID).
			Return(assert.AnError)

		service := NewQuestService(mockRepo, notifier, DefaultValidationDelay)
		service.finalizeTask(context.Background(), task)

		mockRepo.AssertExpectations(t)
		notifier.AssertNotCalled(t, "NotifyClaim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2025, 6, 15, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), StartOfDayUTC(in))

	offset := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2025, 6, 16, 2, 0, 0, 0, offset)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), StartOfDayUTC(local))
}
