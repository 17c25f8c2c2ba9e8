package api

import (
	"errors"
	"net/http"
	"strconv"

	"tapquest/internal/model"
	"tapquest/internal/service"
	"tapquest/pkg/auth"
	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type questRoutes struct {
	qs service.QuestServiceI
	a  *auth.TelegramAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, a *auth.TelegramAuth) {
	r := &questRoutes{qs: qs, a: a}
	h := handler.Group("/quests")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.ListQuests)
		h.POST("/:telegram_id/:quest_id/claim", r.ClaimQuest)
	}
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	quests, err := r.qs.ListQuests(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	var response []gin.H
	for _, q := range quests {
		response = append(response, gin.H{
			"quest_id":    q.QuestID,
			"title":       q.Title,
			"nature":      q.Nature,
			"description": q.Description,
			"reward":      q.Reward,
			"target":      q.Target,
			"image_url":   q.ImageURL,
			"expires_at":  q.ExpiresAt,
			"is_claimed":  q.IsClaimed,
			"is_pending":  q.IsPending,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (r *questRoutes) ClaimQuest(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		log.Error("failed to parse quest_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	result, err := r.qs.Claim(c.Request.Context(), id, questID)
	if err != nil {
		var reqErr *service.RequirementNotMetError
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrQuestAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "quest already claimed"})
		case errors.Is(err, service.ErrClaimInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "quest claim is already in progress"})
		case errors.As(err, &reqErr):
			c.JSON(http.StatusForbidden, gin.H{"error": reqErr.Error()})
		default:
			log.Error("failed to claim quest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim quest"})
		}
		return
	}

	if result.State == model.ClaimPending {
		c.JSON(http.StatusAccepted, gin.H{
			"state":  "pending",
			"reward": result.Reward,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":        "granted",
		"reward":       result.Reward,
		"total_points": result.TotalPoints,
	})
}
