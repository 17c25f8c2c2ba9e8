package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tapquest/internal/service"
	"tapquest/pkg/auth"
	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type dailyRewardRoutes struct {
	ds service.DailyRewardServiceI
	a  *auth.TelegramAuth
}

func NewDailyRewardRoutes(handler *gin.RouterGroup, ds service.DailyRewardServiceI, a *auth.TelegramAuth) {
	r := &dailyRewardRoutes{ds: ds, a: a}
	h := handler.Group("/daily-reward")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.GetStatus)
		h.POST("/:telegram_id", r.ClaimReward)
	}
}

func (r *dailyRewardRoutes) GetStatus(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	status, err := r.ds.GetStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get daily reward status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get daily reward status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cycle_day":         status.CycleDay,
		"last_claimed_at":   status.LastClaimedAt,
		"next_claim_at":     status.NextClaimAt,
		"is_available":      status.IsAvailable,
		"has_never_claimed": status.HasNeverClaimed,
		"rewards":           status.Rewards,
	})
}

func (r *dailyRewardRoutes) ClaimReward(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	result, err := r.ds.Claim(c.Request.Context(), id)
	if err != nil {
		var notAvail *service.ClaimNotAvailableError
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.As(err, &notAvail):
			c.JSON(http.StatusForbidden, gin.H{
				"error":             notAvail.Error(),
				"remaining_seconds": int(notAvail.Remaining / time.Second),
			})
		default:
			log.Error("failed to claim daily reward", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily reward"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cycle_day":    result.CycleDay,
		"reward":       result.Reward,
		"total_points": result.TotalPoints,
	})
}
