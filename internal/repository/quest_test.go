package repository

import (
	"context"
	"testing"
	"time"

	"tapquest/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Repository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func userRow(telegramID int64, points, pointsToday, tapsToday int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"telegram_id", "username", "invited_by", "friends_count", "referral_tokens",
		"points", "points_today", "taps_today", "quests_completed_today",
		"registration_date", "last_auth_date",
	}).AddRow(telegramID, "player", nil, 0, 0, points, pointsToday, tapsToday, 0, now, now)
}

func questRow(questID uuid.UUID, nature model.QuestNature, target, reward int) *sqlmock.Rows {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"quest_id", "title", "description", "nature", "target", "reward",
		"image_url", "generation_date", "expires_at",
	}).AddRow(questID.String(), "Daily Tapping Frenzy", "tap away", string(nature), target, reward,
		"", day, day.Add(24*time.Hour-time.Second))
}

func TestClaimInGameQuest_BurnsCounterAndConsumesQuest(t *testing.T) {
	repo, mock := newMockRepo(t)
	questID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(123)).
		WillReturnRows(userRow(123, 100, 80, 80))
	mock.ExpectQuery(`SELECT \* FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnRows(questRow(questID, model.QuestTapBased, 50, 10))
	mock.ExpectExec(`DELETE FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET points = points \+ \$1, taps_today = taps_today - \$2, quests_completed_today = quests_completed_today \+ 1 WHERE \(telegram_id = \$3 AND taps_today >= \$4\)`).
		WithArgs(10, 50, int64(123), 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.ClaimInGameQuest(context.Background(), 123, questID)

	require.NoError(t, err)
	assert.Equal(t, model.ClaimGranted, result.State)
	assert.Equal(t, 10, result.Reward)
	assert.Equal(t, 110, result.TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimInGameQuest_ShortfallBeforeAnyWrite(t *testing.T) {
	repo, mock := newMockRepo(t)
	questID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(123)).
		WillReturnRows(userRow(123, 100, 30, 30))
	mock.ExpectQuery(`SELECT \* FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnRows(questRow(questID, model.QuestTapBased, 50, 10))
	mock.ExpectRollback()

	_, err := repo.ClaimInGameQuest(context.Background(), 123, questID)

	var reqErr *RequirementNotMetError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 20, reqErr.Shortfall)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimInGameQuest_ConcurrentBurnRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	questID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(123)).
		WillReturnRows(userRow(123, 100, 80, 80))
	mock.ExpectQuery(`SELECT \* FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnRows(questRow(questID, model.QuestTapBased, 50, 10))
	mock.ExpectExec(`DELETE FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Another claim for the same account burned the counter between our read
	// and the conditional update, so zero rows match the predicate.
	mock.ExpectExec(`UPDATE users SET points = points \+ \$1, taps_today = taps_today - \$2.*taps_today >= \$4`).
		WithArgs(10, 50, int64(123), 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(123)).
		WillReturnRows(userRow(123, 110, 30, 30))
	mock.ExpectRollback()

	_, err := repo.ClaimInGameQuest(context.Background(), 123, questID)

	var reqErr *RequirementNotMetError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 20, reqErr.Shortfall)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimInGameQuest_QuestRowAlreadyConsumed(t *testing.T) {
	repo, mock := newMockRepo(t)
	questID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(124)).
		WillReturnRows(userRow(124, 0, 80, 80))
	mock.ExpectQuery(`SELECT \* FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnRows(questRow(questID, model.QuestTapBased, 50, 10))
	mock.ExpectExec(`DELETE FROM quests WHERE quest_id = \$1`).
		WithArgs(questID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.ClaimInGameQuest(context.Background(), 124, questID)

	assert.ErrorIs(t, err, ErrQuestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
