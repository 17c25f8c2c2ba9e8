package service

import (
	"context"
	"time"

	"tapquest/internal/metrics"
	"tapquest/internal/model"
	"tapquest/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQuestTemplates is the catalog stamped into the daily pool by the
// reseed sweep.
var DefaultQuestTemplates = []model.QuestTemplate{
	{
		Title:       "Daily Tapping Frenzy",
		Description: "Perform 100 taps today to earn rewards!",
		Nature:      model.QuestTapBased,
		Target:      100,
		Reward:      50,
		ImageURL:    "https://example.com/images/tapping_frenzy.png",
	},
	{
		Title:       "Master Tapper",
		Description: "Achieve 200 taps today and level up!",
		Nature:      model.QuestTapBased,
		Target:      200,
		Reward:      75,
		ImageURL:    "https://example.com/images/master_tapper.png",
	},
	{
		Title:       "Super Tapper",
		Description: "Complete 500 taps today to become a legend!",
		Nature:      model.QuestTapBased,
		Target:      500,
		Reward:      150,
		ImageURL:    "https://example.com/images/super_tapper.png",
	},
	{
		Title:       "Point Collector",
		Description: "Earn 500 points today by completing tasks.",
		Nature:      model.QuestPointsBased,
		Target:      500,
		Reward:      100,
		ImageURL:    "https://example.com/images/point_collector.png",
	},
	{
		Title:       "Points Marathon",
		Description: "Accumulate 1000 points by completing various missions.",
		Nature:      model.QuestPointsBased,
		Target:      1000,
		Reward:      200,
		ImageURL:    "https://example.com/images/points_marathon.png",
	},
	{
		Title:       "Points Guru",
		Description: "Reach 1500 points today and unlock special bonuses.",
		Nature:      model.QuestPointsBased,
		Target:      1500,
		Reward:      250,
		ImageURL:    "https://example.com/images/points_guru.png",
	},
	{
		Title:       "Social Sharer",
		Description: "Share our game on Facebook to earn rewards!",
		Nature:      model.QuestSocial,
		Reward:      150,
		ImageURL:    "https://example.com/images/social_sharer.png",
	},
	{
		Title:       "Twitter Promoter",
		Description: "Tweet about our game to earn exclusive rewards!",
		Nature:      model.QuestSocial,
		Reward:      120,
		ImageURL:    "https://example.com/images/twitter_promoter.png",
	},
	{
		Title:       "Instagram Influencer",
		Description: "Post about our game on Instagram to gain rewards.",
		Nature:      model.QuestSocial,
		Reward:      130,
		ImageURL:    "https://example.com/images/instagram_influencer.png",
	},
}

// BuildDailyQuests stamps the template set with the given day and an
// end-of-day expiry.
func BuildDailyQuests(templates []model.QuestTemplate, day time.Time) []*model.Quest {
	expiresAt := day.Add(24*time.Hour - time.Second)

	quests := make([]*model.Quest, len(templates))
	for i, t := range templates {
		quests[i] = &model.Quest{
			QuestID:        uuid.New(),
			Title:          t.Title,
			Description:    t.Description,
			Nature:         t.Nature,
			Target:         t.Target,
			Reward:         t.Reward,
			ImageURL:       t.ImageURL,
			GenerationDate: day,
			ExpiresAt:      expiresAt,
		}
	}

	return quests
}

// MaintenanceScheduler runs the two daily sweeps on each UTC midnight
// boundary: the per-day counter reset and the quest pool reseed. Both are
// idempotent, so a rerun after a partial failure duplicates nothing.
type MaintenanceScheduler struct {
	repo      MaintenanceRepository
	templates []model.QuestTemplate
}

func NewMaintenanceScheduler(repo MaintenanceRepository, templates []model.QuestTemplate) *MaintenanceScheduler {
	if len(templates) == 0 {
		templates = DefaultQuestTemplates
	}
	return &MaintenanceScheduler{
		repo:      repo,
		templates: templates,
	}
}

func (s *MaintenanceScheduler) Run(ctx context.Context) {
	log := logger.Logger()
	log.Info("maintenance scheduler started")

	for {
		now := time.Now().UTC()
		next := StartOfDayUTC(now).Add(24 * time.Hour)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("maintenance scheduler stopped")
			return
		case <-timer.C:
			s.RunSweeps(ctx)
		}
	}
}

// RunSweeps executes both sweeps. Each failure is logged and left for the
// next tick; the sweeps are independently retryable.
func (s *MaintenanceScheduler) RunSweeps(ctx context.Context) {
	log := logger.Logger()
	today := StartOfDayUTC(time.Now().UTC())

	reset, err := s.repo.ResetDailyCounters(ctx)
	if err != nil {
		metrics.SweepErrors.WithLabelValues("counter_reset").Inc()
		log.Error("daily counter reset failed", zap.Error(err))
	} else {
		metrics.SweepRuns.WithLabelValues("counter_reset").Inc()
		log.Info("daily counters reset", zap.Int64("accounts", reset))
	}

	deleted, err := s.repo.DeleteExpiredQuests(ctx, today)
	if err != nil {
		metrics.SweepErrors.WithLabelValues("quest_reseed").Inc()
		log.Error("expired quest cleanup failed", zap.Error(err))
		return
	}
	log.Info("expired quests deleted", zap.Int64("quests", deleted))

	seeded, err := s.repo.SeedDailyQuests(ctx, BuildDailyQuests(s.templates, today), today)
	if err != nil {
		metrics.SweepErrors.WithLabelValues("quest_reseed").Inc()
		log.Error("quest pool reseed failed", zap.Error(err))
		return
	}

	metrics.SweepRuns.WithLabelValues("quest_reseed").Inc()
	if seeded {
		log.Info("quest pool reseeded", zap.Time("day", today))
	} else {
		log.Info("quest pool already seeded for today", zap.Time("day", today))
	}
}
