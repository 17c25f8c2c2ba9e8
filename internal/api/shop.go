package api

import (
	"errors"
	"net/http"
	"strconv"

	"tapquest/internal/service"
	"tapquest/pkg/auth"
	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type shopRoutes struct {
	ss service.ShopServiceI
	a  *auth.TelegramAuth
}

func NewShopRoutes(handler *gin.RouterGroup, ss service.ShopServiceI, a *auth.TelegramAuth) {
	r := &shopRoutes{ss: ss, a: a}
	h := handler.Group("/shop")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.ListItems)
		h.POST("/:telegram_id/purchase", r.PurchaseItem)
		h.POST("/:telegram_id/upgrade", r.UpgradeItem)
		h.POST("/:telegram_id/equip", r.EquipItem)
		h.POST("/:telegram_id/mine", r.Mine)
	}
}

type ShopItemRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

func (r *shopRoutes) ListItems(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	items, err := r.ss.ListItems(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list shop items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shop items"})
		return
	}

	var response []gin.H
	for _, item := range items {
		entry := gin.H{
			"item_id":   item.ItemID,
			"name":      item.Name,
			"category":  item.Category,
			"base_cost": item.BaseCost,
			"image_url": item.ImageURL,
			"owned":     item.Owned,
			"locked":    item.Locked,
			"equipped":  item.Equipped,
		}
		if item.Owned {
			entry["level"] = item.Level
			entry["upgrade_cost"] = item.UpgradeCost(item.Level)
			entry["points_per_cycle"] = item.PointsPerCycle(item.Level)
		}
		response = append(response, entry)
	}

	c.JSON(http.StatusOK, response)
}

func (r *shopRoutes) PurchaseItem(c *gin.Context) {
	log := logger.Logger()

	id, req, ok := r.bindItemRequest(c)
	if !ok {
		return
	}

	result, err := r.ss.Purchase(c.Request.Context(), id, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case errors.Is(err, service.ErrItemAlreadyOwned):
			c.JSON(http.StatusConflict, gin.H{"error": "item already owned"})
		case errors.Is(err, service.ErrInsufficientPoints):
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient points"})
		default:
			log.Error("failed to purchase item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purchase item"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":          result.Item.ItemID,
		"level":            result.Item.Level,
		"points_per_cycle": result.Item.PointsPerCycle,
		"remaining_points": result.RemainingPoints,
	})
}

func (r *shopRoutes) UpgradeItem(c *gin.Context) {
	log := logger.Logger()

	id, req, ok := r.bindItemRequest(c)
	if !ok {
		return
	}

	result, err := r.ss.Upgrade(c.Request.Context(), id, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case errors.Is(err, service.ErrItemNotOwned):
			c.JSON(http.StatusConflict, gin.H{"error": "item not owned"})
		case errors.Is(err, service.ErrInsufficientPoints):
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient points"})
		default:
			log.Error("failed to upgrade item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade item"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":           result.Item.ItemID,
		"level":             result.Item.Level,
		"points_per_cycle":  result.Item.PointsPerCycle,
		"next_upgrade_cost": result.NextUpgradeCost,
		"remaining_points":  result.RemainingPoints,
	})
}

func (r *shopRoutes) EquipItem(c *gin.Context) {
	log := logger.Logger()

	id, req, ok := r.bindItemRequest(c)
	if !ok {
		return
	}

	err := r.ss.Equip(c.Request.Context(), id, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case errors.Is(err, service.ErrItemNotOwned):
			c.JSON(http.StatusConflict, gin.H{"error": "item not owned"})
		case errors.Is(err, service.ErrItemLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "item is locked"})
		default:
			log.Error("failed to equip item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to equip item"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"item_id": req.ItemID, "equipped": true})
}

func (r *shopRoutes) Mine(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	result, err := r.ss.Mine(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to mine", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mine"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mined_points": result.MinedPoints,
		"total_points": result.TotalPoints,
	})
}

func (r *shopRoutes) bindItemRequest(c *gin.Context) (int64, *ShopItemRequest, bool) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return 0, nil, false
	}

	var req ShopItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return 0, nil, false
	}

	return id, &req, true
}
