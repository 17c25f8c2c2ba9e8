package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tapquest/internal/api"
	"tapquest/internal/middleware"
	"tapquest/internal/repository"
	"tapquest/internal/service"
	"tapquest/pkg/auth"
	"tapquest/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := api.NewNotifyHub()

	userService := service.NewUserService(repo)
	questService := service.NewQuestService(repo, hub, cfg.Claims.ValidationDelay)
	shopService := service.NewShopService(repo)
	dailyRewardService := service.NewDailyRewardService(repo)
	scheduler := service.NewMaintenanceScheduler(repo, nil)

	go questService.RunFinalizer(ctx)
	go scheduler.Run(ctx)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.Debug)
	tapLimiter := middleware.NewTapRateLimiter(cfg.Taps.PerSecond, cfg.Taps.Burst)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth, tapLimiter)
	api.NewQuestRoutes(a, questService, telegramAuth)
	api.NewShopRoutes(a, shopService, telegramAuth)
	api.NewDailyRewardRoutes(a, dailyRewardService, telegramAuth)
	api.NewNotifyRoutes(a, hub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
