package repository

import (
	"context"
	"fmt"
	"time"

	"tapquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ResetDailyCounters zeroes every account's per-day counters in one batched
// statement. Running it twice on the same day is a no-op after the first.
func (r *Repository) ResetDailyCounters(ctx context.Context) (int64, error) {
	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"points_today":           0,
			"taps_today":             0,
			"quests_completed_today": 0,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily counters: %w", err)
	}

	return result.RowsAffected()
}

// DeleteExpiredQuests removes quests generated before the given day.
func (r *Repository) DeleteExpiredQuests(ctx context.Context, day time.Time) (int64, error) {
	query, args, err := squirrel.
		Delete("quests").
		Where(squirrel.Lt{"generation_date": day}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quests: %w", err)
	}

	return result.RowsAffected()
}

// SeedDailyQuests inserts the day's quest pool and appends a fresh progress
// row per (account, quest). A pool already stamped with the day makes the
// whole call a no-op, so the sweep can rerun safely.
func (r *Repository) SeedDailyQuests(ctx context.Context, quests []*model.Quest, day time.Time) (bool, error) {
	seeded := false

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		countQuery, countArgs, err := squirrel.
			Select("COUNT(*)").
			From("quests").
			Where(squirrel.Eq{"generation_date": day}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
			return fmt.Errorf("failed to count today's quests: %w", err)
		}
		if count > 0 {
			return nil
		}

		questBuilder := squirrel.
			Insert("quests").
			Columns("quest_id", "title", "description", "nature", "target", "reward", "image_url", "generation_date", "expires_at")

		for _, q := range quests {
			questBuilder = questBuilder.Values(
				q.QuestID, q.Title, q.Description, q.Nature, q.Target, q.Reward, q.ImageURL, q.GenerationDate, q.ExpiresAt,
			)
		}

		questQuery, questArgs, err := questBuilder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, questQuery, questArgs...); err != nil {
			return fmt.Errorf("failed to insert quests: %w", err)
		}

		userQuery, userArgs, err := squirrel.
			Select("telegram_id").
			From("users").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var userIDs []int64
		if err := tx.SelectContext(ctx, &userIDs, userQuery, userArgs...); err != nil {
			return fmt.Errorf("failed to get user ids: %w", err)
		}

		if len(userIDs) > 0 {
			progressBuilder := squirrel.
				Insert("user_quest_progress").
				Columns("user_telegram_id", "quest_id", "progress", "assigned_at")

			now := time.Now().UTC()
			for _, userID := range userIDs {
				for _, q := range quests {
					progressBuilder = progressBuilder.Values(userID, q.QuestID, 0, now)
				}
			}

			progressQuery, progressArgs, err := progressBuilder.PlaceholderFormat(squirrel.Dollar).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build progress insert query: %w", err)
			}

			if _, err := tx.ExecContext(ctx, progressQuery, progressArgs...); err != nil {
				return fmt.Errorf("failed to insert progress rows: %w", err)
			}
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return seeded, nil
}
