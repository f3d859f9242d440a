package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/quizwhiz/internal/auth"
	"github.com/gokatarajesh/quizwhiz/internal/auth/jwt"
	"github.com/gokatarajesh/quizwhiz/internal/config"
	"github.com/gokatarajesh/quizwhiz/internal/db/repository"
	"github.com/gokatarajesh/quizwhiz/internal/db/store"
	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/grading/ai"
	"github.com/gokatarajesh/quizwhiz/internal/logging"
	"github.com/gokatarajesh/quizwhiz/internal/metrics"
	"github.com/gokatarajesh/quizwhiz/internal/quiz/external"
	"github.com/gokatarajesh/quizwhiz/internal/results"
	"github.com/gokatarajesh/quizwhiz/internal/server"
	"github.com/gokatarajesh/quizwhiz/internal/session"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/settings"
	ws "github.com/gokatarajesh/quizwhiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	reaper *session.Reaper
}

// New bootstraps the logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.PoolDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	queries := store.New(pool)
	clientRepo := repository.NewClientRepository(queries)
	resultRepo := repository.NewResultRepository(queries)

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("authentication service must be configured (set JWT_SECRET)")
	}
	authSvc := auth.NewService(clientRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			TTL:    cfg.Security.JWTTTL,
			Issuer: cfg.Name,
		},
	}, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	var (
		remoteGrader grading.Grader
		recommender  results.Recommender
	)
	if cfg.AI.GraderURL != "" {
		aiClient := ai.NewClient(ai.Config{
			BaseURL: cfg.AI.GraderURL,
			APIKey:  cfg.AI.APIKey,
			Timeout: cfg.AI.HTTPTimeout,
		}, logger)
		remoteGrader = aiClient
		recommender = aiClient
	} else {
		logger.Warn().Msg("AI service not configured (AI_GRADER_URL); subjective grading and recommendations unavailable")
	}

	scoringEngine := scoring.NewEngine(scoring.DefaultConfig())
	states := session.NewStateManager(redisClient, cfg.Session.StateTTL, logger)
	settingsStore := settings.NewRedisStore(redisClient, settings.Settings{
		SpeakerEnabled:     cfg.Settings.SpeakerEnabled,
		AutoAdvanceEnabled: cfg.Settings.AutoAdvanceEnabled,
		AutoMicEnabled:     cfg.Settings.AutoMicEnabled,
	})
	registry := session.NewRegistry()
	wsHub := ws.NewHub(logger)
	metrics.RegisterConnectionGauge(wsHub.Count)

	sessionWS := session.NewHandler(
		states,
		settingsStore,
		grading.NewDispatcher(remoteGrader, logger),
		resultRepo,
		scoringEngine,
		wsHub,
		registry,
		authSvc,
		session.HandlerOptions{
			Config: session.Config{
				AutoAdvanceDelay: cfg.Session.AutoAdvanceDelay,
				AutoMicWindow:    cfg.Session.AutoMicWindow,
				GradingTimeout:   cfg.Session.GradingTimeout,
			},
			ReapInterval:   cfg.Session.ReapInterval,
			PersistTimeout: cfg.Session.PersistTimeout,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		logger,
	)

	sessionHTTP := session.NewHTTPHandlers(session.HTTPDependencies{
		States:      states,
		Settings:    settingsStore,
		Importer:    external.NewOpenTDBClient(cfg.OpenTDB.BaseURL, &http.Client{Timeout: cfg.OpenTDB.Timeout}),
		History:     resultRepo,
		Recommender: recommender,
		Scoring:     scoringEngine,
		ClaimTTL:    cfg.AI.HTTPTimeout + 10*time.Second,
	}, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Routes{
		CreateClient:  authHandlers.CreateClient,
		GetMe:         authHandlers.GetMe,
		ImportQuiz:    sessionHTTP.ImportQuiz,
		ImportOpenTDB: sessionHTTP.ImportOpenTDB,
		ActiveQuiz:    sessionHTTP.ActiveQuiz,
		Settings:      sessionHTTP.Settings,
		LatestResult:  sessionHTTP.LatestResult,
		History:       sessionHTTP.History,
		Recommend:     sessionHTTP.Recommend,
		SessionWS:     sessionWS.HandleWebSocket,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
		reaper: session.NewReaper(registry, cfg.Session.ReapInterval, cfg.Session.IdleTTL, logger),
	}, nil
}

// Run starts the HTTP server and background workers and waits for a
// termination signal.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.reaper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("session reaper: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()

	a.pool.Close()
	if cerr := a.redis.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return err
}
