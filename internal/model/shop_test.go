package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShopItemCostCurve(t *testing.T) {
	item := &ShopItem{
		Name:              "Scrap Drone",
		Category:          CategoryDrone,
		BaseCost:          100,
		BasePoints:        10,
		UpgradeMultiplier: 1.5,
	}

	// Upgrading from level 1, then 2, then 3.
	assert.Equal(t, 150, item.UpgradeCost(1))
	assert.Equal(t, 225, item.UpgradeCost(2))
	assert.Equal(t, 337, item.UpgradeCost(3))

	// Yield right after purchase and after one upgrade.
	assert.Equal(t, 15, item.PointsPerCycle(1))
	assert.Equal(t, 22, item.PointsPerCycle(2))
}

func TestShopItemCostCurveTruncates(t *testing.T) {
	item := &ShopItem{
		BaseCost:          33,
		BasePoints:        7,
		UpgradeMultiplier: 1.1,
	}

	// 33 * 1.1 = 36.3 and 7 * 1.1 = 7.7; fractions are dropped, not rounded.
	assert.Equal(t, 36, item.UpgradeCost(1))
	assert.Equal(t, 7, item.PointsPerCycle(1))
}
