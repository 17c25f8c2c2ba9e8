package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapquest/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidInput      = errors.New("invalid input")

	ErrQuestNotFound       = errors.New("quest not found")
	ErrQuestAlreadyClaimed = errors.New("quest already claimed")
	ErrClaimInProgress     = errors.New("quest claim is already in progress")

	ErrItemNotFound       = errors.New("item not found")
	ErrItemAlreadyOwned   = errors.New("item already owned")
	ErrItemNotOwned       = errors.New("item not owned")
	ErrItemLocked         = errors.New("item is locked")
	ErrInsufficientPoints = errors.New("insufficient points")
)

// RequirementNotMetError reports the shortfall of a tap- or points-based
// claim attempt.
type RequirementNotMetError struct {
	Nature    model.QuestNature
	Shortfall int
}

func (e *RequirementNotMetError) Error() string {
	switch e.Nature {
	case model.QuestTapBased:
		return fmt.Sprintf("you need %d more taps today to complete this quest", e.Shortfall)
	case model.QuestPointsBased:
		return fmt.Sprintf("you need %d more points today to complete this quest", e.Shortfall)
	}
	return fmt.Sprintf("you need %d more to complete this quest", e.Shortfall)
}

// ClaimNotAvailableError reports how long until the next daily reward claim.
type ClaimNotAvailableError struct {
	Remaining time.Duration
}

func (e *ClaimNotAvailableError) Error() string {
	return fmt.Sprintf("daily reward already claimed, next claim in %s", e.Remaining.Round(time.Second))
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User, inviterID *int64) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	AddTaps(ctx context.Context, telegramID int64, increment int) (*model.TapResult, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
}

type QuestServiceI interface {
	ListQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, error)
	Claim(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error)
}

type ShopServiceI interface {
	ListItems(ctx context.Context, telegramID int64) ([]*model.ShopItemStatus, error)
	Purchase(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.PurchaseResult, error)
	Upgrade(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.UpgradeResult, error)
	Equip(ctx context.Context, telegramID int64, itemID uuid.UUID) error
	Mine(ctx context.Context, telegramID int64) (*model.MineResult, error)
}

type DailyRewardServiceI interface {
	GetStatus(ctx context.Context, telegramID int64) (*model.DailyReward, error)
	Claim(ctx context.Context, telegramID int64) (*model.DailyClaimResult, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, inviterID *int64) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	AddTaps(ctx context.Context, telegramID int64, increment int) (*model.TapResult, error)
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
}

type QuestRepository interface {
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	ListQuestStatuses(ctx context.Context, telegramID int64, day time.Time) ([]*model.QuestStatus, error)
	ClaimInGameQuest(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error)
	AddPendingSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID, executeAt time.Time) error
	DueSocialClaimTasks(ctx context.Context, now time.Time, limit int) ([]*model.SocialClaimTask, error)
	FinalizeSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error)
	CompensatePendingClaim(ctx context.Context, telegramID int64, questID uuid.UUID) error
}

type ShopRepository interface {
	ListShopItems(ctx context.Context, telegramID int64) ([]*model.ShopItemStatus, error)
	PurchaseItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.PurchaseResult, error)
	UpgradeItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.UpgradeResult, error)
	EquipItem(ctx context.Context, telegramID int64, itemID uuid.UUID) error
	Mine(ctx context.Context, telegramID int64, baseReward int) (*model.MineResult, error)
}

type DailyRewardRepository interface {
	GetDailyReward(ctx context.Context, telegramID int64) (*model.DailyReward, error)
	ClaimDailyReward(ctx context.Context, telegramID int64, day int, reward int, expectedLastClaim *time.Time, now time.Time) (*model.DailyClaimResult, error)
}

type MaintenanceRepository interface {
	ResetDailyCounters(ctx context.Context) (int64, error)
	DeleteExpiredQuests(ctx context.Context, day time.Time) (int64, error)
	SeedDailyQuests(ctx context.Context, quests []*model.Quest, day time.Time) (bool, error)
}

// ClaimNotifier receives the outcome of deferred social quest finalization
// so connected clients learn whether their pending claim settled or was
// reverted.
type ClaimNotifier interface {
	NotifyClaim(telegramID int64, questID uuid.UUID, settled bool, reward int)
}
