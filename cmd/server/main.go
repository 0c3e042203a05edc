package main // Entry point package

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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"

	"github.com/iliyamo/score-leaderboard/internal/config"
	"github.com/iliyamo/score-leaderboard/internal/database"
	"github.com/iliyamo/score-leaderboard/internal/handler"
	"github.com/iliyamo/score-leaderboard/internal/middleware"
	"github.com/iliyamo/score-leaderboard/internal/repository"
	"github.com/iliyamo/score-leaderboard/internal/router"
	"github.com/iliyamo/score-leaderboard/internal/service"
	"github.com/iliyamo/score-leaderboard/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var records handler.RecordNotifier
	if cfg.RabbitMQURL != "" {
		records = service.NewRecordPublisher(cfg.RabbitMQURL, logger)
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	scores := repository.NewScoreRepo(db)
	board := repository.NewLeaderboardRepo(db)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORS())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, logger), tokens,
		middleware.NewTokenBucket(rlCfg, rdb, logger))
	scoreH := handler.NewScoreHandler(users, scores, board, records, logger)
	router.RegisterScores(e, scoreH, tokens)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "db", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := scoreH.Drain(shutdownCtx); err != nil {
		logger.Warn("record events still pending at exit", "error", err)
	}
	return nil
}
