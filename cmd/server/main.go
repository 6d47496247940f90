package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/api"
	"github.com/lalith-99/playhub/internal/auth"
	"github.com/lalith-99/playhub/internal/chat"
	"github.com/lalith-99/playhub/internal/comment"
	"github.com/lalith-99/playhub/internal/config"
	"github.com/lalith-99/playhub/internal/db"
	"github.com/lalith-99/playhub/internal/forum"
	"github.com/lalith-99/playhub/internal/guide"
	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/middleware"
	"github.com/lalith-99/playhub/internal/observ"
	"github.com/lalith-99/playhub/internal/repository"
	"github.com/lalith-99/playhub/internal/repository/memory"
	"github.com/lalith-99/playhub/internal/repository/postgres"
	"github.com/lalith-99/playhub/internal/repository/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// ---------------------------------------------------------------
	// 1. Load config
	//
	// .env is optional; real environment variables win over it.
	// ---------------------------------------------------------------
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, observ.FileOptions{Path: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Pick storage backends
	//
	// Everything runs in memory by default. Postgres takes over users
	// and comments; Redis takes over chat sessions.
	// ---------------------------------------------------------------
	var (
		userRepo    repository.UserRepository    = memory.NewUserStore()
		commentRepo repository.CommentRepository = memory.NewCommentStore()
		sessionRepo repository.SessionRepository = memory.NewSessionStore()
		health      api.HealthChecker
	)

	if cfg.StorageDriver == config.DriverPostgres {
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		userRepo = postgres.NewUserStore(database.Pool())
		commentRepo = postgres.NewCommentStore(database.Pool())
		health = database
	}

	if cfg.SessionStore == config.DriverRedis {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		sessionRepo = redis.NewSessionStore(client, cfg.ChatSessionTTL)
	}

	logger.Info("storage ready",
		zap.String("storage_driver", cfg.StorageDriver),
		zap.String("session_store", cfg.SessionStore),
	)

	// ---------------------------------------------------------------
	// 4. Build services
	// ---------------------------------------------------------------
	metrics := observ.NewMetrics()

	localizer, err := i18n.NewLocalizer(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	authSvc := auth.NewService(userRepo, auth.Config{Secret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}, logger)
	if err := authSvc.SeedDemoAccounts(ctx); err != nil {
		return fmt.Errorf("seed demo accounts: %w", err)
	}

	chatSvc := chat.NewService(sessionRepo, localizer, chat.Config{
		MinLatency: cfg.ChatMinLatency,
		MaxLatency: cfg.ChatMaxLatency,
		SessionTTL: cfg.ChatSessionTTL,
	}, logger, chat.WithTokenMeter(authSvc), chat.WithRecorder(metrics))

	commentSvc := comment.NewService(commentRepo, logger)

	forumSvc := forum.NewService(
		memory.NewPostStore(forum.SeedPosts(time.Now())...),
		forum.NewAuthorDirectory(userRepo),
		logger,
	)

	catalog := guide.NewCatalog(memory.NewGuideStore(guide.SeedCatalog()))
	interactive := guide.NewInteractiveService(catalog, memory.NewInteractionStore(), logger)

	// ---------------------------------------------------------------
	// 5. Background jobs and metrics endpoint
	// ---------------------------------------------------------------
	reaper, err := chat.NewReaper(chatSvc, cfg.ChatSweepSchedule, logger)
	if err != nil {
		return fmt.Errorf("schedule session reaper: %w", err)
	}
	reaper.Start()

	var metricsSrv *observ.MetricsServer
	if cfg.MetricsEnabled {
		metricsSrv = observ.NewMetricsServer(cfg.MetricsPort, cfg.MetricsPath, logger)
		metricsSrv.Start()
	}

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst, logger)
	limiter.OnReject(metrics.RecordRateLimited)

	router := api.NewRouter(api.RouterDeps{
		Auth:          api.NewAuthHandler(authSvc, logger),
		Users:         api.NewUserHandler(authSvc, logger),
		Chat:          api.NewChatHandler(chatSvc, logger),
		Comments:      api.NewCommentHandler(commentSvc, logger),
		Forum:         api.NewForumHandler(forumSvc, logger),
		Guides:        api.NewGuideHandler(catalog, interactive, logger),
		Authenticator: authSvc,
		Limiter:       limiter,
		Recorder:      metrics,
		Health:        health,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting PlayHub",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ---------------------------------------------------------------
	// 7. Wait for a signal, then drain
	// ---------------------------------------------------------------
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	reaper.Stop(shutdownCtx)
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", zap.Error(err))
		}
	}
	return nil
}
