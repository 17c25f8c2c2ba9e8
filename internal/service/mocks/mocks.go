package mocks

import (
	"context"
	"time"

	"tapquest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, inviterID *int64) error {
	args := m.Called(ctx, user, inviterID)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) AddTaps(ctx context.Context, telegramID int64, increment int) (*model.TapResult, error) {
	args := m.Called(ctx, telegramID, increment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TapResult), args.Error(1)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) ListQuestStatuses(ctx context.Context, telegramID int64, day time.Time) ([]*model.QuestStatus, error) {
	args := m.Called(ctx, telegramID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestStatus), args.Error(1)
}

func (m *MockQuestRepository) ClaimInGameQuest(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error) {
	args := m.Called(ctx, telegramID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimResult), args.Error(1)
}

func (m *MockQuestRepository) AddPendingSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID, executeAt time.Time) error {
	args := m.Called(ctx, telegramID, questID, executeAt)
	return args.Error(0)
}

func (m *MockQuestRepository) DueSocialClaimTasks(ctx context.Context, now time.Time, limit int) ([]*model.SocialClaimTask, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SocialClaimTask), args.Error(1)
}

func (m *MockQuestRepository) FinalizeSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error) {
	args := m.Called(ctx, telegramID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimResult), args.Error(1)
}

func (m *MockQuestRepository) CompensatePendingClaim(ctx context.Context, telegramID int64, questID uuid.UUID) error {
	args := m.Called(ctx, telegramID, questID)
	return args.Error(0)
}

type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) ListShopItems(ctx context.Context, telegramID int64) ([]*model.ShopItemStatus, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ShopItemStatus), args.Error(1)
}

func (m *MockShopRepository) PurchaseItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.PurchaseResult, error) {
	args := m.Called(ctx, telegramID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseResult), args.Error(1)
}

func (m *MockShopRepository) UpgradeItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.UpgradeResult, error) {
	args := m.Called(ctx, telegramID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UpgradeResult), args.Error(1)
}

func (m *MockShopRepository) EquipItem(ctx context.Context, telegramID int64, itemID uuid.UUID) error {
	args := m.Called(ctx, telegramID, itemID)
	return args.Error(0)
}

func (m *MockShopRepository) Mine(ctx context.Context, telegramID int64, baseReward int) (*model.MineResult, error) {
	args := m.Called(ctx, telegramID, baseReward)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MineResult), args.Error(1)
}

type MockDailyRewardRepository struct {
	mock.Mock
}

func (m *MockDailyRewardRepository) GetDailyReward(ctx context.Context, telegramID int64) (*model.DailyReward, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyReward), args.Error(1)
}

func (m *MockDailyRewardRepository) ClaimDailyReward(ctx context.Context, telegramID int64, day int, reward int, expectedLastClaim *time.Time, now time.Time) (*model.DailyClaimResult, error) {
	args := m.Called(ctx, telegramID, day, reward, expectedLastClaim, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyClaimResult), args.Error(1)
}

type MockMaintenanceRepository struct {
	mock.Mock
}

func (m *MockMaintenanceRepository) ResetDailyCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) DeleteExpiredQuests(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) SeedDailyQuests(ctx context.Context, quests []*model.Quest, day time.Time) (bool, error) {
	args := m.Called(ctx, quests, day)
	return args.Bool(0), args.Error(1)
}

type MockClaimNotifier struct {
	mock.Mock
}

func (m *MockClaimNotifier) NotifyClaim(telegramID int64, questID uuid.UUID, settled bool, reward int) {
	m.Called(telegramID, questID, settled, reward)
}
