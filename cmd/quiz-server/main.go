package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/bank"
	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/client"
	"github.com/SAP-F-2025/quiz-engine/internal/config"
	"github.com/SAP-F-2025/quiz-engine/internal/handlers"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/SAP-F-2025/quiz-engine/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	if err := run(cfg, logger, slogger); err != nil {
		slogger.Error("Quiz server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger, slogger *slog.Logger) error {
	ctx := context.Background()

	v := validator.New()
	scorer := scoring.NewScorer()

	// A bank that fails validation or has an unscored question type keeps
	// the server from starting.
	questionBank, err := bank.NewLoader(v, scorer).Load(cfg.Quiz.BankPath)
	if err != nil {
		return err
	}
	slogger.Info("Question bank loaded",
		"quiz_id", cfg.Quiz.ID,
		"path", cfg.Quiz.BankPath,
		"questions", questionBank.Len())

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, slogger)
	}

	var resultService services.ResultService
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		defer pkg.CloseDatabase(db)
		resultService = services.NewResultService(postgres.NewResultPostgreSQL(db), cacheService, publisher, v, slogger)
	} else {
		slogger.Warn("DATABASE_URL not set, result ingestion API disabled")
	}

	writer := client.NewHTTPResultWriter(cfg.Submission.Endpoint, &http.Client{})
	submitter := services.NewResultSubmitter(writer, publisher, cfg.Submission.Timeout, slogger)
	sessionService := services.NewQuizSessionService(cfg.Quiz.ID, questionBank, scorer, submitter, publisher, cfg.Session.IdleTTL, slogger)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go sessionService.RunSweeper(sweepCtx, cfg.Session.SweepInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.ContextLogger(logger), utils.LoggerMiddleware(logger))
	handlers.NewHandlerManager(cfg.Quiz.ID, questionBank, sessionService, resultService, v, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slogger.Info("Quiz server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	slogger.Info("Shutting down quiz server")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("Server forced to shutdown", "error", err)
	}
	// pending result writes finish before the publisher closes
	if err := sessionService.Drain(shutdownCtx); err != nil {
		slogger.Warn("Result writes still pending at shutdown", "error", err)
	}

	slogger.Info("Quiz server exited")
	return nil
}
