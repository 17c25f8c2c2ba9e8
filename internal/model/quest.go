package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestNature string

const (
	QuestTapBased    QuestNature = "tap-based"
	QuestPointsBased QuestNature = "points-based"
	QuestSocial      QuestNature = "social"
)

type Quest struct {
	QuestID        uuid.UUID
	Title          string
	Description    string
	Nature         QuestNature
	Target         int
	Reward         int
	ImageURL       string
	GenerationDate time.Time
	ExpiresAt      time.Time
}

// QuestStatus is a pool quest annotated with the viewer's claim state.
type QuestStatus struct {
	Quest
	IsClaimed bool
	IsPending bool
}

type ClaimState string

const (
	// ClaimGranted means the reward was credited within the claiming request.
	ClaimGranted ClaimState = "granted"
	// ClaimPending means the claim awaits deferred external validation.
	ClaimPending ClaimState = "pending"
)

type ClaimResult struct {
	State       ClaimState
	Reward      int
	TotalPoints int
}

// SocialClaimTask is a durable deferred-finalization entry. One row exists
// per in-flight pending claim; it outlives the request that created it.
type SocialClaimTask struct {
	UserTelegramID int64
	QuestID        uuid.UUID
	ExecuteAt      time.Time
	Attempts       int
}

// QuestTemplate is a catalog entry the maintenance sweep stamps into the
// daily pool.
type QuestTemplate struct {
	Title       string
	Description string
	Nature      QuestNature
	Target      int
	Reward      int
	ImageURL    string
}
