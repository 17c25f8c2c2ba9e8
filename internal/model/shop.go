package model

import (
	"math"

	"github.com/google/uuid"
)

type ItemCategory string

const (
	CategoryCompanion ItemCategory = "companion"
	CategoryEngine    ItemCategory = "engine"
	CategoryDrone     ItemCategory = "drone"
)

type ShopItem struct {
	ItemID            uuid.UUID
	Name              string
	Category          ItemCategory
	BaseCost          int
	BasePoints        int
	UpgradeMultiplier float64
	ImageURL          string
}

type InventoryItem struct {
	UserTelegramID int64
	ItemID         uuid.UUID
	Level          int
	PointsPerCycle int
	Locked         bool
	Equipped       bool
}

// ShopItemStatus is a catalog entry annotated with the viewer's ownership.
type ShopItemStatus struct {
	ShopItem
	Owned    bool
	Locked   bool
	Equipped bool
	Level    int
}

// UpgradeCost returns the price of upgrading an item that currently sits at
// the given level.
func (i *ShopItem) UpgradeCost(level int) int {
	return int(float64(i.BaseCost) * math.Pow(i.UpgradeMultiplier, float64(level)))
}

// PointsPerCycle returns the per-cycle yield of an item at the given level,
// integer-truncated.
func (i *ShopItem) PointsPerCycle(level int) int {
	return int(float64(i.BasePoints) * math.Pow(i.UpgradeMultiplier, float64(level)))
}

type PurchaseResult struct {
	Item            *InventoryItem
	RemainingPoints int
}

type UpgradeResult struct {
	Item            *InventoryItem
	NextUpgradeCost int
	RemainingPoints int
}

type MineResult struct {
	MinedPoints int
	TotalPoints int
}
