package service

import (
	"context"
	"errors"
	"fmt"

	"tapquest/internal/model"
	"tapquest/internal/repository"

	"github.com/google/uuid"
)

// MineBaseReward is the fixed bonus granted on every mine on top of the
// inventory's per-cycle yield.
const MineBaseReward = 20

type ShopService struct {
	repo ShopRepository
}

func NewShopService(repo ShopRepository) *ShopService {
	return &ShopService{
		repo: repo,
	}
}

func (s *ShopService) ListItems(ctx context.Context, telegramID int64) ([]*model.ShopItemStatus, error) {
	items, err := s.repo.ListShopItems(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop items: %w", err)
	}
	return items, nil
}

func (s *ShopService) Purchase(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.PurchaseResult, error) {
	result, err := s.repo.PurchaseItem(ctx, telegramID, itemID)
	if err != nil {
		return nil, mapShopError(err)
	}
	return result, nil
}

func (s *ShopService) Upgrade(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.UpgradeResult, error) {
	result, err := s.repo.UpgradeItem(ctx, telegramID, itemID)
	if err != nil {
		return nil, mapShopError(err)
	}
	return result, nil
}

func (s *ShopService) Equip(ctx context.Context, telegramID int64, itemID uuid.UUID) error {
	if err := s.repo.EquipItem(ctx, telegramID, itemID); err != nil {
		return mapShopError(err)
	}
	return nil
}

func (s *ShopService) Mine(ctx context.Context, telegramID int64) (*model.MineResult, error) {
	result, err := s.repo.Mine(ctx, telegramID, MineBaseReward)
	if err != nil {
		return nil, mapShopError(err)
	}
	return result, nil
}

func mapShopError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrItemNotFound
	case errors.Is(err, repository.ErrAlreadyOwned):
		return ErrItemAlreadyOwned
	case errors.Is(err, repository.ErrNotOwned):
		return ErrItemNotOwned
	case errors.Is(err, repository.ErrItemLocked):
		return ErrItemLocked
	case errors.Is(err, repository.ErrInsufficientPoints):
		return ErrInsufficientPoints
	default:
		return err
	}
}
