package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scamslayer-service/internal/app"
	"scamslayer-service/internal/auth"
	"scamslayer-service/internal/catalog"
	"scamslayer-service/internal/config"
	"scamslayer-service/internal/infra/memory"
	"scamslayer-service/internal/infra/postgres"
	pgmigrations "scamslayer-service/internal/infra/postgres/migrations"
	redisinfra "scamslayer-service/internal/infra/redis"
	"scamslayer-service/internal/infra/sqlite"
	"scamslayer-service/internal/scheduler"
	transport "scamslayer-service/internal/transport/http"
)

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, opts.logger)
		},
	}
}

// stores are the backends selected by configuration.
type stores struct {
	loader  memory.ScenarioLoader
	ledger  app.Ledger
	reports app.ReportStore
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{loader: catalog.NewLoader()}
	switch cfg.Ledger.Driver {
	case config.LedgerPostgres:
		db := postgres.OpenBun(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { db.Close() })
		if _, err := pgmigrations.Run(ctx, db); err != nil {
			s.close()
			return nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		pgLoader := postgres.NewScenarioLoader(pool)
		existing, err := pgLoader.ListScenarios(ctx)
		if err != nil {
			s.close()
			return nil, err
		}
		if len(existing) == 0 {
			n, err := postgres.SeedScenarios(ctx, db, catalog.Scenarios())
			if err != nil {
				s.close()
				return nil, err
			}
			logger.Info("seeded empty scenario table", zap.Int("count", n))
		}
		s.loader = pgLoader
		s.ledger = postgres.NewLedger(pool)
		s.reports = postgres.NewReportStore(db)
	case config.LedgerSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		s.ledger = sqlite.NewLedger(db)
		s.reports = sqlite.NewReportStore(db)
	default:
		logger.Warn("using in-memory ledger; progress is lost on restart")
		s.ledger = memory.NewLedger()
		s.reports = memory.NewReportStore()
	}
	return s, nil
}

func runServer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("built-in catalog is invalid: %w", err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	scenarioTTL := config.TTLDuration(cfg.Scenarios.TTL, 10*time.Minute)
	idleTTL := config.TTLDuration(cfg.Attempts.IdleTTL, 30*time.Minute)

	var (
		scenarioRepo app.ScenarioRepository
		attempts     app.AttemptRepository
		guard        app.CompletionGuard
	)
	if redisClient != nil {
		scenarioRepo = redisinfra.NewScenarioRepository(redisClient, st.loader, scenarioTTL)
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
		guard = redisinfra.NewCompletionGuard(redisClient, 30*time.Second)
	} else {
		scenarioRepo = memory.NewScenarioRepository(st.loader, scenarioTTL)
		attempts = memory.NewAttemptStore()
		guard = memory.NewCompletionGuard()
	}

	progOpts := app.DefaultProgressionOptions()
	progOpts.MaxRetries = uint64(cfg.Progression.MaxRetries)
	progOpts.InitialInterval = config.TTLDuration(cfg.Progression.InitialInterval, progOpts.InitialInterval)

	progression := app.NewProgressionService(st.ledger, guard, progOpts, logger.Named("progression"))
	scenarios := app.NewScenarioService(attempts, scenarioRepo, progression, logger.Named("scenarios"))
	reports := app.NewReportService(st.reports, logger.Named("reports"))

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if errors.Is(err, auth.ErrMissingSecret) {
		logger.Warn("no jwt secret configured; every caller is anonymous and completions cannot be recorded")
		verifier = nil
	}

	sched := scheduler.New(scenarios, logger.Named("scheduler"))
	if err := sched.Start(config.TTLDuration(cfg.Attempts.SweepInterval, time.Minute), idleTTL); err != nil {
		return err
	}
	defer sched.Stop()

	api := transport.NewAPI(scenarios, progression, reports, logger.Named("http"))
	ws := transport.NewWSHandler(scenarios, logger.Named("ws"))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      transport.NewRouter(api, ws, verifier, logger.Named("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting scamslayer service",
			zap.String("addr", server.Addr),
			zap.String("ledger", cfg.Ledger.Driver),
			zap.Bool("redis", redisClient != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
