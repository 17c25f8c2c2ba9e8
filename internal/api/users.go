package api

import (
	"errors"
	"net/http"
	"strconv"

	"tapquest/internal/middleware"
	"tapquest/internal/model"
	"tapquest/internal/service"
	"tapquest/pkg/auth"
	"tapquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth, taps *middleware.TapRateLimiter) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:telegram_id", r.GetUserByTelegramID)
		h.POST("/:telegram_id/taps", taps.Middleware(), r.AddTaps)
	}
}

type RegisterUserRequest struct {
	Referrer *int64 `json:"referrer"`
}

type RegisterUserResponse struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userData, exists := c.Get("telegram_user")
	if !exists {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		log.Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	u := &model.User{
		TelegramID:       user.ID,
		Username:         user.Username,
		RegistrationDate: user.AuthDate,
		AuthDate:         user.AuthDate,
	}

	err := r.us.RegisterUser(c.Request.Context(), u, req.Referrer)
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram identity"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	out := RegisterUserResponse{
		TelegramID: u.TelegramID,
		Username:   u.Username,
	}

	c.JSON(http.StatusCreated, out)
}

func (r *userRoutes) GetUserByTelegramID(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"telegram_id":            user.TelegramID,
		"username":               user.Username,
		"invited_by":             user.InvitedBy,
		"friends_count":          user.FriendsCount,
		"referral_tokens":        user.ReferralTokens,
		"points":                 user.Points,
		"points_today":           user.PointsToday,
		"taps_today":             user.TapsToday,
		"quests_completed_today": user.QuestsCompletedToday,
		"registration_date":      user.RegistrationDate,
	})
}

type AddTapsRequest struct {
	Increment int `json:"increment"`
}

func (r *userRoutes) AddTaps(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req AddTapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.us.AddTaps(c.Request.Context(), id, req.Increment)
	if err != nil {
		log.Error("failed to add taps", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "increment must be a positive integer"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add taps"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taps_today":   result.TapsToday,
		"points_today": result.PointsToday,
		"total_points": result.TotalPoints,
	})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	var response []gin.H
	for _, user := range users {
		response = append(response, gin.H{
			"username":      user.Username,
			"points":        user.Points,
			"friends_count": user.FriendsCount,
		})
	}

	c.JSON(http.StatusOK, response)
}
