package service

import (
	"context"
	"testing"

	"tapquest/internal/model"
	"tapquest/internal/repository"
	"tapquest/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_RegisterUser(t *testing.T) {
	inviter := int64(555)

	tests := []struct {
		name          string
		user          *model.User
		inviterID     *int64
		setupMocks    func(mockRepo *mocks.MockUserRepository)
		expectedError error
	}{
		{
			name: "Successful registration",
			user: &model.User{TelegramID: 123, Username: "player"},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, (*int64)(nil)).
					Return(nil)
			},
		},
		{
			name:      "Registration with referrer",
			user:      &model.User{TelegramID: 124, Username: "invited"},
			inviterID: &inviter,
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, &inviter).
					Return(nil)
			},
		},
		{
			name:          "Invalid telegram id",
			user:          &model.User{TelegramID: 0},
			setupMocks:    func(mockRepo *mocks.MockUserRepository) {},
			expectedError: ErrInvalidInput,
		},
		{
			name: "Duplicate registration",
			user: &model.User{TelegramID: 125, Username: "dup"},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, (*int64)(nil)).
					Return(repository.ErrAlreadyExists)
			},
			expectedError: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			tt.setupMocks(mockRepo)

			service := NewUserService(mockRepo)
			err := service.RegisterUser(context.Background(), tt.user, tt.inviterID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_AddTaps(t *testing.T) {
	tests := []struct {
		name          string
		telegramID    int64
		increment     int
		setupMocks    func(mockRepo *mocks.MockUserRepository)
		expectedError error
		checkResult   func(*testing.T, *model.TapResult)
	}{
		{
			name:       "Batch of taps credited atomically",
			telegramID: 123,
			increment:  25,
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("AddTaps", mock.Anything, int64(123), 25).
					Return(&model.TapResult{
						TapsToday:   125,
						PointsToday: 125,
						TotalPoints: 2125,
					}, nil)
			},
			checkResult: func(t *testing.T, result *model.TapResult) {
				assert.Equal(t, 125, result.TapsToday)
				assert.Equal(t, 125, result.PointsToday)
				assert.Equal(t, 2125, result.TotalPoints)
			},
		},
		{
			name:          "Zero increment rejected",
			telegramID:    123,
			increment:     0,
			setupMocks:    func(mockRepo *mocks.MockUserRepository) {},
			expectedError: ErrInvalidInput,
		},
		{
			name:          "Negative increment rejected",
			telegramID:    123,
			increment:     -5,
			setupMocks:    func(mockRepo *mocks.MockUserRepository) {},
			expectedError: ErrInvalidInput,
		},
		{
			name:       "Unknown account",
			telegramID: 999,
			increment:  1,
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("AddTaps", mock.Anything, int64(999), 1).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			tt.setupMocks(mockRepo)

			service := NewUserService(mockRepo)
			result, err := service.AddTaps(context.Background(), tt.telegramID, tt.increment)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			if tt.checkResult != nil {
				tt.checkResult(t, result)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
