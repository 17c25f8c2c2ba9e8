package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tapquest/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Quest struct {
	QuestID        uuid.UUID         `db:"quest_id"`
	Title          string            `db:"title"`
	Description    string            `db:"description"`
	Nature         model.QuestNature `db:"nature"`
	Target         int               `db:"target"`
	Reward         int               `db:"reward"`
	ImageURL       string            `db:"image_url"`
	GenerationDate time.Time         `db:"generation_date"`
	ExpiresAt      time.Time         `db:"expires_at"`
}

func (q *Quest) toModel() *model.Quest {
	return &model.Quest{
		QuestID:        q.QuestID,
		Title:          q.Title,
		Description:    q.Description,
		Nature:         q.Nature,
		Target:         q.Target,
		Reward:         q.Reward,
		ImageURL:       q.ImageURL,
		GenerationDate: q.GenerationDate,
		ExpiresAt:      q.ExpiresAt,
	}
}

func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	var quest Quest
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"quest_id": questID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &quest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	return quest.toModel(), nil
}

// ListQuestStatuses returns the quest pool for the given day annotated with
// the viewer's social claim state.
func (r *Repository) ListQuestStatuses(ctx context.Context, telegramID int64, day time.Time) ([]*model.QuestStatus, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"generation_date": day}).
		OrderBy("expires_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var quests []Quest
	if err := r.db.SelectContext(ctx, &quests, query, args...); err != nil {
		return nil, err
	}

	claimedIDs, pendingIDs, err := r.getSocialClaimSets(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]struct{}, len(claimedIDs))
	for _, id := range claimedIDs {
		claimed[id] = struct{}{}
	}
	pending := make(map[string]struct{}, len(pendingIDs))
	for _, id := range pendingIDs {
		pending[id] = struct{}{}
	}

	statuses := make([]*model.QuestStatus, len(quests))
	for i, q := range quests {
		_, isClaimed := claimed[q.QuestID.String()]
		_, isPending := pending[q.QuestID.String()]
		statuses[i] = &model.QuestStatus{
			Quest:     *q.toModel(),
			IsClaimed: isClaimed,
			IsPending: isPending,
		}
	}

	return statuses, nil
}

// getSocialClaimSets aggregates the account's claimed and pending social
// quest id sets. A claim row is pending until completed flips to true, so
// the two sets are disjoint by construction.
func (r *Repository) getSocialClaimSets(ctx context.Context, telegramID int64) ([]string, []string, error) {
	query, args, err := squirrel.
		Select(
			"array_agg(quest_id::text) FILTER (WHERE completed) as claimed_ids",
			"array_agg(quest_id::text) FILTER (WHERE NOT completed) as pending_ids",
		).
		From("users_social_claims").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, nil, err
	}

	var sets struct {
		ClaimedIDs pq.StringArray `db:"claimed_ids"`
		PendingIDs pq.StringArray `db:"pending_ids"`
	}
	err = r.db.GetContext(ctx, &sets, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get claim sets: %w", err)
	}

	return sets.ClaimedIDs, sets.PendingIDs, nil
}

// ClaimInGameQuest settles a tap-based or points-based claim in one
// transaction: eligibility check against the daily counter, reward grant,
// counter burn and global quest deletion. The quest delete is conditional;
// a concurrent claimant that loses the race observes ErrQuestNotFound.
func (r *Repository) ClaimInGameQuest(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error) {
	var result *model.ClaimResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		var quest Quest
		questQuery, questArgs, err := squirrel.
			Select("*").
			From("quests").
			Where(squirrel.Eq{"quest_id": questID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &quest, questQuery, questArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrQuestNotFound
			}
			return err
		}

		var counter int
		var counterColumn string
		switch quest.Nature {
		case model.QuestTapBased:
			counter = user.TapsToday
			counterColumn = "taps_today"
		case model.QuestPointsBased:
			counter = user.PointsToday
			counterColumn = "points_today"
		default:
			return fmt.Errorf("quest %s is not claimable in-game", questID)
		}

		if counter < quest.Target {
			return &RequirementNotMetError{
				Nature:    string(quest.Nature),
				Shortfall: quest.Target - counter,
			}
		}

		deleteQuery, deleteArgs, err := squirrel.
			Delete("quests").
			Where(squirrel.Eq{"quest_id": questID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		deleted, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete quest: %w", err)
		}

		rows, err := deleted.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrQuestNotFound
		}

		// The sufficiency predicate rides in the same statement as the burn.
		// Two claims racing on the same counter cannot both pass it, so the
		// counter never goes negative even though the eligibility read above
		// was unlocked.
		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", quest.Reward)).
			Set(counterColumn, squirrel.Expr(counterColumn+" - ?", quest.Target)).
			Set("quests_completed_today", squirrel.Expr("quests_completed_today + 1")).
			Where(squirrel.And{
				squirrel.Eq{"telegram_id": telegramID},
				squirrel.GtOrEq{counterColumn: quest.Target},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		burned, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to grant quest reward: %w", err)
		}

		burnedRows, err := burned.RowsAffected()
		if err != nil {
			return err
		}
		if burnedRows == 0 {
			// A concurrent claim burned the counter after our read. Re-read
			// for an accurate shortfall and roll everything back.
			fresh, err := r.getUserWithTx(ctx, tx, telegramID)
			if err != nil {
				return err
			}
			remaining := fresh.TapsToday
			if quest.Nature == model.QuestPointsBased {
				remaining = fresh.PointsToday
			}
			return &RequirementNotMetError{
				Nature:    string(quest.Nature),
				Shortfall: quest.Target - remaining,
			}
		}

		result = &model.ClaimResult{
			State:       model.ClaimGranted,
			Reward:      quest.Reward,
			TotalPoints: user.Points + quest.Reward,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddPendingSocialClaim takes the pending lock for a social quest and
// enqueues the durable finalizer task, both in one transaction. The unique
// (user, quest) key on the claim table guarantees at most one in-flight
// claim per pair.
func (r *Repository) AddPendingSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID, executeAt time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := r.getUserWithTx(ctx, tx, telegramID); err != nil {
			return err
		}

		var completed bool
		stateQuery, stateArgs, err := squirrel.
			Select("completed").
			From("users_social_claims").
			Where(squirrel.Eq{
				"user_telegram_id": telegramID,
				"quest_id":         questID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &completed, stateQuery, stateArgs...)
		if err == nil {
			if completed {
				return ErrQuestAlreadyClaimed
			}
			return ErrClaimPending
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check claim state: %w", err)
		}

		now := time.Now().UTC()
		claimQuery, claimArgs, err := squirrel.
			Insert("users_social_claims").
			SetMap(map[string]interface{}{
				"user_telegram_id": telegramID,
				"quest_id":         questID,
				"completed":        false,
				"started_at":       now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, claimQuery, claimArgs...); err != nil {
			return fmt.Errorf("failed to insert pending claim: %w", err)
		}

		taskQuery, taskArgs, err := squirrel.
			Insert("social_claim_tasks").
			SetMap(map[string]interface{}{
				"user_telegram_id": telegramID,
				"quest_id":         questID,
				"execute_at":       executeAt,
				"attempts":         0,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, taskQuery, taskArgs...); err != nil {
			return fmt.Errorf("failed to enqueue claim task: %w", err)
		}

		return nil
	})
}

// DueSocialClaimTasks returns finalizer tasks whose deferral delay has
// elapsed.
func (r *Repository) DueSocialClaimTasks(ctx context.Context, now time.Time, limit int) ([]*model.SocialClaimTask, error) {
	query, args, err := squirrel.
		Select("user_telegram_id", "quest_id", "execute_at", "attempts").
		From("social_claim_tasks").
		Where(squirrel.LtOrEq{"execute_at": now}).
		OrderBy("execute_at").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var tasks []struct {
		UserTelegramID int64     `db:"user_telegram_id"`
		QuestID        uuid.UUID `db:"quest_id"`
		ExecuteAt      time.Time `db:"execute_at"`
		Attempts       int       `db:"attempts"`
	}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.SocialClaimTask, len(tasks))
	for i, t := range tasks {
		out[i] = &model.SocialClaimTask{
			UserTelegramID: t.UserTelegramID,
			QuestID:        t.QuestID,
			ExecuteAt:      t.ExecuteAt,
			Attempts:       t.Attempts,
		}
	}

	return out, nil
}

// FinalizeSocialClaim completes a pending social claim: it re-reads account
// and quest state fresh, double-checks the claim was not settled
// concurrently, grants the reward and flips pending to claimed atomically.
func (r *Repository) FinalizeSocialClaim(ctx context.Context, telegramID int64, questID uuid.UUID) (*model.ClaimResult, error) {
	var result *model.ClaimResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserWithTx(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		var quest Quest
		questQuery, questArgs, err := squirrel.
			Select("*").
			From("quests").
			Where(squirrel.Eq{"quest_id": questID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &quest, questQuery, questArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrQuestNotFound
			}
			return err
		}

		updateClaim, claimArgs, err := squirrel.
			Update("users_social_claims").
			Set("completed", true).
			Set("finished_at", time.Now().UTC()).
			Where(squirrel.Eq{
				"user_telegram_id": telegramID,
				"quest_id":         questID,
				"completed":        false,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, updateClaim, claimArgs...)
		if err != nil {
			return fmt.Errorf("failed to complete claim: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrQuestAlreadyClaimed
		}

		grantQuery, grantArgs, err := squirrel.
			Update("users").
			Set("points", squirrel.Expr("points + ?", quest.Reward)).
			Where(squirrel.Eq{"telegram_id": telegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, grantQuery, grantArgs...); err != nil {
			return fmt.Errorf("failed to grant social quest reward: %w", err)
		}

		if err := deleteClaimTask(ctx, tx, telegramID, questID); err != nil {
			return err
		}

		result = &model.ClaimResult{
			State:       model.ClaimGranted,
			Reward:      quest.Reward,
			TotalPoints: user.Points + quest.Reward,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CompensatePendingClaim reverts a failed deferred claim to the unclaimed
// state by dropping the pending lock and its task. Safe to run repeatedly.
func (r *Repository) CompensatePendingClaim(ctx context.Context, telegramID int64, questID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		deleteQuery, deleteArgs, err := squirrel.
			Delete("users_social_claims").
			Where(squirrel.Eq{
				"user_telegram_id": telegramID,
				"quest_id":         questID,
				"completed":        false,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return fmt.Errorf("failed to remove pending claim: %w", err)
		}

		return deleteClaimTask(ctx, tx, telegramID, questID)
	})
}

func deleteClaimTask(ctx context.Context, tx *sqlx.Tx, telegramID int64, questID uuid.UUID) error {
	query, args, err := squirrel.
		Delete("social_claim_tasks").
		Where(squirrel.Eq{
			"user_telegram_id": telegramID,
			"quest_id":         questID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete claim task: %w", err)
	}

	return nil
}
