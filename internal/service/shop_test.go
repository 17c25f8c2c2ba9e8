package service

import (
	"context"
	"testing"

	"tapquest/internal/model"
	"tapquest/internal/repository"
	"tapquest/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestShopService_Purchase(t *testing.T) {
	itemID := uuid.New()

	tests := []struct {
		name          string
		setupMocks    func(mockRepo *mocks.MockShopRepository)
		expectedError error
	}{
		{
			name: "Successful purchase",
			setupMocks: func(mockRepo *mocks.MockShopRepository) {
				mockRepo.On("PurchaseItem", mock.Anything, int64(123), itemID).
					Return(&model.PurchaseResult{
						Item: &model.InventoryItem{
							UserTelegramID: 123,
							ItemID:         itemID,
							Level:          1,
							PointsPerCycle: 15,
						},
						RemainingPoints: 900,
					}, nil)
			},
		},
		{
			name: "Item not found",
			setupMocks: func(mockRepo *mocks.MockShopRepository) {
				mockRepo.On("PurchaseItem", mock.Anything, int64(123), itemID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrItemNotFound,
		},
		{
			name: "Already owned",
			setupMocks: func(mockRepo *mocks.MockShopRepository) {
				mockRepo.On("PurchaseItem", mock.Anything, int64(123), itemID).
					Return(nil, repository.ErrAlreadyOwned)
			},
			expectedError: ErrItemAlreadyOwned,
		},
		{
			name: "Insufficient points",
			setupMocks: func(mockRepo *mocks.MockShopRepository) {
				mockRepo.On("PurchaseItem", mock.Anything, int64(123), itemID).
					Return(nil, repository.ErrInsufficientPoints)
			},
			expectedError: ErrInsufficientPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockShopRepository{}
			tt.setupMocks(mockRepo)

			service := NewShopService(mockRepo)
			result, err := service.Purchase(context.Background(), 123, itemID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, 1, result.Item.Level)
			assert.Equal(t, 900, result.RemainingPoints)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestShopService_Equip(t *testing.T) {
	itemID := uuid.New()

	tests := []struct {
		name          string
		repoError     error
		expectedError error
	}{
		{name: "Successful equip"},
		{name: "Not owned", repoError: repository.ErrNotOwned, expectedError: ErrItemNotOwned},
		{name: "Locked", repoError: repository.ErrItemLocked, expectedError: ErrItemLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockShopRepository{}
			mockRepo.On("EquipItem", mock.Anything, int64(123), itemID).
				Return(tt.repoError)

			service := NewShopService(mockRepo)
			err := service.Equip(context.Background(), 123, itemID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestShopService_Mine(t *testing.T) {
	mockRepo := &mocks.MockShopRepository{}
	mockRepo.On("Mine", mock.Anything, int64(123), MineBaseReward).
		Return(&model.MineResult{
			MinedPoints: MineBaseReward + 45,
			TotalPoints: 2065,
		}, nil)

	service := NewShopService(mockRepo)
	result, err := service.Mine(context.Background(), 123)

	assert.NoError(t, err)
	assert.Equal(t, MineBaseReward+45, result.MinedPoints)
	assert.Equal(t, 2065, result.TotalPoints)
	mockRepo.AssertExpectations(t)
}
