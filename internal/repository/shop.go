package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tapquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ShopItem struct {
	ItemID            uuid.UUID          `db:"item_id"`
	Name              string             `db:"name"`
	Category          model.ItemCategory `db:"category"`
	BaseCost          int                `db:"base_cost"`
	BasePoints        int                `db:"base_points"`
	UpgradeMultiplier float64            `db:"upgrade_multiplier"`
	ImageURL          string             `db:"image_url"`
}

func (i *ShopItem) toModel() *model.ShopItem {
	return &model.ShopItem{
		ItemID:            i.ItemID,
		Name:              i.Name,
		Category:          i.Category,
		BaseCost:          i.BaseCost,
		BasePoints:        i.BasePoints,
		UpgradeMultiplier: i.UpgradeMultiplier,
		ImageURL:          i.ImageURL,
	}
}

type inventoryItem struct {
	UserTelegramID int64     `db:"user_telegram_id"`
	ItemID         uuid.UUID `db:"item_id"`
	Level          int       `db:"level"`
	PointsPerCycle int       `db:"points_per_cycle"`
	Locked         bool      `db:"locked"`
	Equipped       bool      `db:"equipped"`
}

// ListShopItems returns the catalog joined with the viewer's ownership
// state. Items the account does not own report locked=true, mirroring the
// storefront rendering rule.
func (r *Repository) ListShopItems(ctx context.Context, telegramID int64) ([]*model.ShopItemStatus, error) {
	query, args, err := squirrel.
		Select(
			"si.item_id",
			"si.name",
			"si.category",
			"si.base_cost",
			"si.base_points",
			"si.upgrade_multiplier",
			"si.image_url",
			"ui.level",
			"ui.locked",
			"ui.equipped",
		).
		From("shop_items si").
		LeftJoin("user_inventory ui ON ui.item_id = si.item_id AND ui.user_telegram_id = ?", telegramID).
		OrderBy("si.base_cost").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ShopItem
		Level    *int  `db:"level"`
		Locked   *bool `db:"locked"`
		Equipped *bool `db:"equipped"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	statuses := make([]*model.ShopItemStatus, len(rows))
	for i, row := range rows {
		status := &model.ShopItemStatus{
			ShopItem: *row.ShopItem.toModel(),
			Owned:    row.Level != nil,
			Locked:   true,
		}
		if row.Level != nil {
			status.Level = *row.Level
			status.Locked = *row.Locked
			status.Equipped = *row.Equipped
		}
		statuses[i] = status
	}

	return statuses, nil
}

func getShopItemWithTx(ctx context.Context, tx *sqlx.Tx, itemID uuid.UUID) (*model.ShopItem, error) {
	query, args, err := squirrel.
		Select("*").
		From("shop_items").
		Where(squirrel.Eq{"item_id": itemID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var item ShopItem
	err = tx.GetContext(ctx, &item, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return item.toModel(), nil
}

func getInventoryItemWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, itemID uuid.UUID) (*inventoryItem, error) {
	query, args, err := squirrel.
		Select("*").
		From("user_inventory").
		Where(squirrel.Eq{
			"user_telegram_id": telegramID,
			"item_id":          itemID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var item inventoryItem
	err = tx.GetContext(ctx, &item, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotOwned
		}
		return nil, err
	}

	return &item, nil
}

// debitPoints subtracts cost from the account balance. The sufficiency check
// rides in the same statement as the debit, so the balance can never go
// negative between check and commit.
func debitPoints(ctx context.Context, tx *sqlx.Tx, telegramID int64, cost int) error {
	query, args, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points - ?", cost)).
		Where(squirrel.And{
			squirrel.Eq{"telegram_id": telegramID},
			squirrel.GtOrEq{"points": cost},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to debit points: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientPoints
	}

	return nil
}

// PurchaseItem debits the base cost and creates the level-1 inventory row in
// one transaction.
func (r *Repository) PurchaseItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.PurchaseResult, error) {
	var result *model.PurchaseResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		item, err := getShopItemWithTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		if _, err := getInventoryItemWithTx(ctx, tx, telegramID, itemID); err == nil {
			return ErrAlreadyOwned
		} else if !errors.Is(err, ErrNotOwned) {
			return err
		}

		if err := debitPoints(ctx, tx, telegramID, item.BaseCost); err != nil {
			return err
		}

		owned := &model.InventoryItem{
			UserTelegramID: telegramID,
			ItemID:         itemID,
			Level:          1,
			PointsPerCycle: item.PointsPerCycle(1),
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("user_inventory").
			SetMap(map[string]interface{}{
				"user_telegram_id": telegramID,
				"item_id":          itemID,
				"level":            owned.Level,
				"points_per_cycle": owned.PointsPerCycle,
				"locked":           false,
				"equipped":         false,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("failed to insert inventory item: %w", err)
		}

		result = &model.PurchaseResult{
			Item:            owned,
			RemainingPoints: user.Points - item.BaseCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpgradeItem debits the level-dependent cost, bumps the level and
// recomputes the yield in one transaction. It reports the cost of the next
// upgrade so callers can render it without a second round trip.
func (r *Repository) UpgradeItem(ctx context.Context, telegramID int64, itemID uuid.UUID) (*model.UpgradeResult, error) {
	var result *model.UpgradeResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		item, err := getShopItemWithTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		owned, err := getInventoryItemWithTx(ctx, tx, telegramID, itemID)
		if err != nil {
			return err
		}

		cost := item.UpgradeCost(owned.Level)
		if err := debitPoints(ctx, tx, telegramID, cost); err != nil {
			return err
		}

		newLevel := owned.Level + 1
		newPointsPerCycle := item.PointsPerCycle(newLevel)

		updateQuery, updateArgs, err := squirrel.
			Update("user_inventory").
			SetMap(map[string]interface{}{
				"level":            newLevel,
				"points_per_cycle": newPointsPerCycle,
			}).
			Where(squirrel.Eq{
				"user_telegram_id": telegramID,
				"item_id":          itemID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to upgrade item: %w", err)
		}

		result = &model.UpgradeResult{
			Item: &model.InventoryItem{
				UserTelegramID: telegramID,
				ItemID:         itemID,
				Level:          newLevel,
				PointsPerCycle: newPointsPerCycle,
				Locked:         owned.Locked,
				Equipped:       owned.Equipped,
			},
			NextUpgradeCost: item.UpgradeCost(newLevel),
			RemainingPoints: user.Points - cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// EquipItem makes the target the only equipped item of its category for the
// account. Exclusivity is enforced here, not by the schema.
func (r *Repository) EquipItem(ctx context.Context, telegramID int64, itemID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := getShopItemWithTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		owned, err := getInventoryItemWithTx(ctx, tx, telegramID, itemID)
		if err != nil {
			return err
		}
		if owned.Locked {
			return ErrItemLocked
		}

		unequipQuery, unequipArgs, err := squirrel.
			Update("user_inventory").
			Set("equipped", false).
			Where(squirrel.And{
				squirrel.Eq{"user_telegram_id": telegramID},
				squirrel.Expr("item_id IN (SELECT item_id FROM shop_items WHERE category = ?)", item.Category),
				squirrel.NotEq{"item_id": itemID},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, unequipQuery, unequipArgs...); err != nil {
			return fmt.Errorf("failed to unequip other items: %w", err)
		}

		equipQuery, equipArgs, err := squirrel.
			Update("user_inventory").
			Set("equipped", true).
			Where(squirrel.Eq{
				"user_telegram_id": telegramID,
				"item_id":          itemID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, equipQuery, equipArgs...); err != nil {
			return fmt.Errorf("failed to equip item: %w", err)
		}

		return nil
	})
}

// Mine credits the account with the per-cycle yield of every owned item plus
// the fixed base reward.
func (r *Repository) Mine(ctx context.Context, telegramID int64, baseReward int) (*model.MineResult, error) {
	var result *model.MineResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		sumQuery, sumArgs, err := squirrel.
			Select("COALESCE(SUM(points_per_cycle), 0)").
			From("user_inventory").
			Where(squirrel.Eq{"user_telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var cycleYield int
		if err := tx.GetContext(ctx, &cycleYield, sumQuery, sumArgs...); err != nil {
			return fmt.Errorf("failed to sum inventory yield: %w", err)
		}

		mined := cycleYield + baseReward

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", mined)).
			Set("points_today", squirrel.Expr("points_today + ?", mined)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to credit mined points: %w", err)
		}

		result = &model.MineResult{
			MinedPoints: mined,
			TotalPoints: user.Points + mined,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
