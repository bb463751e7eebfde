// Package main runs the research-participant portal HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campus-research/portal/config"
	"github.com/campus-research/portal/internal/accounts"
	"github.com/campus-research/portal/internal/auth"
	"github.com/campus-research/portal/internal/directory"
	"github.com/campus-research/portal/internal/middleware"
	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/internal/recommend"
	"github.com/campus-research/portal/internal/reservations"
	"github.com/campus-research/portal/internal/studies"
	"github.com/campus-research/portal/pkg/queue"
	"github.com/campus-research/portal/pkg/redis"
	"github.com/campus-research/portal/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Redis backs the recommendation cache and the credit queue; the portal
	// runs degraded without it.
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	accountsClient := accounts.NewClient(cfg.Accounts.BaseURL, time.Duration(cfg.Accounts.TimeoutSec)*time.Second, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Core: study registry + reservation ledger
	registry := studies.NewRegistry()
	ledger := reservations.NewLedger(registry, logger)

	if rdb != nil {
		jobQueue := queue.NewQueue(rdb.Client, logger)
		ledger.SetCreditNotifier(func(ctx context.Context, res models.Reservation, points int) {
			payload := queue.CreditAwardPayload{
				ReservationID: res.ID,
				StudyID:       res.StudyID,
				ParticipantID: res.ParticipantID,
				Points:        points,
			}
			if err := jobQueue.EnqueueCreditAward(ctx, payload); err != nil {
				logger.Warn("credit enqueue failed", zap.Error(err), zap.String("reservation_id", res.ID.String()))
			}
		})
	}

	var recommender directory.Recommender
	if cfg.Recommender.URL != "" {
		if rdb != nil {
			recommender = recommend.New(cfg.Recommender.URL, rdb.Client, time.Duration(cfg.Recommender.CacheTTLMin)*time.Minute, logger)
		} else {
			recommender = recommend.New(cfg.Recommender.URL, nil, 0, logger)
		}
	}

	dir := directory.New(registry, ledger, recommender)

	authHandler := auth.NewHandler(accountsClient, jwtService, logger)
	studyHandler := studies.NewHandler(registry, accountsClient, logger)
	reservationHandler := reservations.NewHandler(ledger, logger)
	dirHandler := directory.NewHandler(dir, accountsClient, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/signup", authHandler.Signup)
	}

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Dashboards (?mine=1 researcher view, ?pending=1 admin queue)
		api.GET("/studies", dirHandler.List)
		api.GET("/studies/:id", studyHandler.Get)
		api.GET("/studies/:id/capacity", dirHandler.Capacity)

		// Participant bookings
		api.POST("/studies/:id/slots/:slotId/reservations", middleware.RequireRole(models.RoleParticipant), reservationHandler.Book)
		api.GET("/reservations", middleware.RequireRole(models.RoleParticipant), dirHandler.ListMyReservations)
		api.DELETE("/reservations/:id", middleware.RequireRole(models.RoleParticipant, models.RoleAdmin), reservationHandler.Cancel)

		// Researcher lifecycle
		api.POST("/studies", middleware.RequireRole(models.RoleResearcher), studyHandler.Propose)
		api.PATCH("/studies/:id", middleware.RequireRole(models.RoleResearcher), studyHandler.Edit)
		api.POST("/studies/:id/submit", middleware.RequireRole(models.RoleResearcher), studyHandler.Submit)
		api.POST("/studies/:id/slots", middleware.RequireRole(models.RoleResearcher), studyHandler.AddSlot)
		api.POST("/studies/:id/complete", middleware.RequireRole(models.RoleResearcher, models.RoleAdmin), studyHandler.Complete)
		api.GET("/studies/:id/reservations", middleware.RequireRole(models.RoleResearcher, models.RoleAdmin), dirHandler.ListStudyReservations)
		api.POST("/reservations/:id/attendance", middleware.RequireRole(models.RoleResearcher, models.RoleAdmin), reservationHandler.MarkAttendance)

		// Admin review actions
		api.POST("/studies/:id/approve", middleware.RequireRole(models.RoleAdmin), studyHandler.Approve)
		api.POST("/studies/:id/reject", middleware.RequireRole(models.RoleAdmin), studyHandler.Reject)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
