package model

import "time"

type User struct {
	TelegramID           int64
	Username             string
	InvitedBy            *int64
	FriendsCount         int
	ReferralTokens       int
	Points               int
	PointsToday          int
	TapsToday            int
	QuestsCompletedToday int
	RegistrationDate     time.Time
	AuthDate             time.Time
}

type TapResult struct {
	TapsToday   int
	PointsToday int
	TotalPoints int
}

type Friendship struct {
	OwnerID   int64
	OtherID   int64
	CreatedAt time.Time
}
