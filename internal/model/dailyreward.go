package model

import "time"

type DailyReward struct {
	UserTelegramID  int64
	CycleDay        int
	LastClaimedAt   *time.Time
	NextClaimAt     *time.Time
	IsAvailable     bool
	HasNeverClaimed bool
	Rewards         []DayReward
}

type DayReward struct {
	Day    int
	Reward int
}

type DailyClaimResult struct {
	CycleDay    int
	Reward      int
	TotalPoints int
}
