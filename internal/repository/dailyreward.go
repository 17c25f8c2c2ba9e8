package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tapquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type dailyReward struct {
	UserTelegramID int64      `db:"user_telegram_id"`
	CycleDay       int        `db:"cycle_day"`
	LastClaimedAt  *time.Time `db:"last_claimed_at"`
}

func (r *Repository) GetDailyReward(ctx context.Context, telegramID int64) (*model.DailyReward, error) {
	query, args, err := squirrel.
		Select("user_telegram_id", "cycle_day", "last_claimed_at").
		From("daily_rewards").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var reward dailyReward
	err = r.db.GetContext(ctx, &reward, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.DailyReward{
		UserTelegramID: reward.UserTelegramID,
		CycleDay:       reward.CycleDay,
		LastClaimedAt:  reward.LastClaimedAt,
	}, nil
}

// ClaimDailyReward advances the cycle and grants the reward in one
// transaction. The update is conditional on the last claim timestamp the
// caller computed the transition from, so two racing claims cannot both
// settle.
func (r *Repository) ClaimDailyReward(ctx context.Context, telegramID int64, day int, reward int, expectedLastClaim *time.Time, now time.Time) (*model.DailyClaimResult, error) {
	var result *model.DailyClaimResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		updateQuery, updateArgs, err := squirrel.
			Update("daily_rewards").
			SetMap(map[string]interface{}{
				"cycle_day":       day,
				"last_claimed_at": now,
			}).
			Where(squirrel.And{
				squirrel.Eq{"user_telegram_id": telegramID},
				squirrel.Expr("last_claimed_at IS NOT DISTINCT FROM ?", expectedLastClaim),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update daily reward: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrDailyRewardClaimed
		}

		grantQuery, grantArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", reward)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			Suffix("RETURNING points").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var total int
		if err := tx.GetContext(ctx, &total, grantQuery, grantArgs...); err != nil {
			return fmt.Errorf("failed to grant daily reward: %w", err)
		}

		result = &model.DailyClaimResult{
			CycleDay:    day,
			Reward:      reward,
			TotalPoints: total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
