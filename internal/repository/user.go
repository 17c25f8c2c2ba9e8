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

// Fixed referral protocol bonuses. Both sides of a successful referral are
// credited referralBonusPoints; the inviter additionally earns one token.
const (
	referralBonusPoints = 250
	referralTokenBonus  = 1
)

type User struct {
	TelegramID           int64     `db:"telegram_id"`
	Username             string    `db:"username"`
	InvitedBy            *int64    `db:"invited_by"`
	FriendsCount         int       `db:"friends_count"`
	ReferralTokens       int       `db:"referral_tokens"`
	Points               int       `db:"points"`
	PointsToday          int       `db:"points_today"`
	TapsToday            int       `db:"taps_today"`
	QuestsCompletedToday int       `db:"quests_completed_today"`
	RegistrationDate     time.Time `db:"registration_date"`
	AuthDate             time.Time `db:"last_auth_date"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		TelegramID:           u.TelegramID,
		Username:             u.Username,
		InvitedBy:            u.InvitedBy,
		FriendsCount:         u.FriendsCount,
		ReferralTokens:       u.ReferralTokens,
		Points:               u.Points,
		PointsToday:          u.PointsToday,
		TapsToday:            u.TapsToday,
		QuestsCompletedToday: u.QuestsCompletedToday,
		RegistrationDate:     u.RegistrationDate,
		AuthDate:             u.AuthDate,
	}
}

// CreateUser registers a new account and, when an inviter identity is
// supplied, runs the referral reward protocol in the same transaction. It
// also seeds the daily reward row and progress rows for the current quest
// pool.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, inviterID *int64) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id":       user.TelegramID,
				"username":          user.Username,
				"registration_date": user.RegistrationDate,
				"last_auth_date":    user.AuthDate,
			}).
			Suffix("ON CONFLICT (telegram_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyExists
		}

		rewardQuery, rewardArgs, err := squirrel.
			Insert("daily_rewards").
			SetMap(map[string]interface{}{
				"user_telegram_id": user.TelegramID,
				"cycle_day":        0,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build daily reward insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, rewardQuery, rewardArgs...); err != nil {
			return fmt.Errorf("failed to insert daily reward row: %w", err)
		}

		if err := r.seedQuestProgress(ctx, tx, user.TelegramID); err != nil {
			return err
		}

		if inviterID != nil {
			if err := r.applyReferral(ctx, tx, user.TelegramID, *inviterID); err != nil {
				return err
			}
		}

		return nil
	})
}

// seedQuestProgress appends a progress row for every quest currently in the
// pool, so new accounts see the same daily quests as everyone else.
func (r *Repository) seedQuestProgress(ctx context.Context, tx *sqlx.Tx, telegramID int64) error {
	questQuery, questArgs, err := squirrel.
		Select("quest_id").
		From("quests").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quests select query: %w", err)
	}

	var questIDs []string
	if err := tx.SelectContext(ctx, &questIDs, questQuery, questArgs...); err != nil {
		return fmt.Errorf("failed to get quest ids: %w", err)
	}

	if len(questIDs) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("user_quest_progress").
		Columns("user_telegram_id", "quest_id", "progress", "assigned_at")

	now := time.Now().UTC()
	for _, questID := range questIDs {
		builder = builder.Values(telegramID, questID, 0, now)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest progress insert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert quest progress rows: %w", err)
	}

	return nil
}

// applyReferral performs the bidirectional friendship creation and dual
// reward grant. Missing inviter, self-referral and an already existing
// friendship are silent no-ops, which makes replays idempotent.
func (r *Repository) applyReferral(ctx context.Context, tx *sqlx.Tx, inviteeID, inviterID int64) error {
	if inviteeID == inviterID {
		return nil
	}

	inviterQuery, inviterArgs, err := squirrel.
		Select("telegram_id").
		From("users").
		Where(squirrel.Eq{"telegram_id": inviterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var inviter int64
	err = tx.GetContext(ctx, &inviter, inviterQuery, inviterArgs...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to resolve inviter: %w", err)
	}

	existsQuery, existsArgs, err := squirrel.
		Select("1").
		From("friendships").
		Where(squirrel.Eq{"owner_id": inviterID, "other_id": inviteeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var exists int
	err = tx.GetContext(ctx, &exists, existsQuery, existsArgs...)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing friendship: %w", err)
	}

	now := time.Now().UTC()
	friendshipQuery, friendshipArgs, err := squirrel.
		Insert("friendships").
		Columns("owner_id", "other_id", "created_at").
		Values(inviterID, inviteeID, now).
		Values(inviteeID, inviterID, now).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, friendshipQuery, friendshipArgs...); err != nil {
		return fmt.Errorf("failed to insert friendship pair: %w", err)
	}

	inviterUpdate, inviterUpdateArgs, err := squirrel.
		Update("users").
		Set("friends_count", squirrel.Expr("friends_count + 1")).
		Set("referral_tokens", squirrel.Expr("referral_tokens + ?", referralTokenBonus)).
		Set("points", squirrel.Expr("points + ?", referralBonusPoints)).
		Where(squirrel.Eq{"telegram_id": inviterID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, inviterUpdate, inviterUpdateArgs...); err != nil {
		return fmt.Errorf("failed to credit inviter: %w", err)
	}

	inviteeUpdate, inviteeUpdateArgs, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points + ?", referralBonusPoints)).
		Set("invited_by", inviterID).
		Where(squirrel.Eq{"telegram_id": inviteeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, inviteeUpdate, inviteeUpdateArgs...); err != nil {
		return fmt.Errorf("failed to credit invitee: %w", err)
	}

	return nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// AddTaps is a pure atomic add on the tap and point counters. Concurrent
// taps from the same client never lose updates because no read precedes the
// write.
func (r *Repository) AddTaps(ctx context.Context, telegramID int64, increment int) (*model.TapResult, error) {
	query, args, err := squirrel.
		Update("users").
		Set("taps_today", squirrel.Expr("taps_today + ?", increment)).
		Set("points_today", squirrel.Expr("points_today + ?", increment)).
		Set("points", squirrel.Expr("points + ?", increment)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix("RETURNING taps_today, points_today, points").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var out struct {
		TapsToday   int `db:"taps_today"`
		PointsToday int `db:"points_today"`
		Points      int `db:"points"`
	}
	err = r.db.GetContext(ctx, &out, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.TapResult{
		TapsToday:   out.TapsToday,
		PointsToday: out.PointsToday,
		TotalPoints: out.Points,
	}, nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var users []User

	query, args, err := squirrel.
		Select("telegram_id", "username", "points", "friends_count").
		From("users").
		OrderBy("points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i, user := range users {
		userList[i] = &model.User{
			TelegramID:   user.TelegramID,
			Username:     user.Username,
			Points:       user.Points,
			FriendsCount: user.FriendsCount,
		}
	}

	return userList, nil
}
