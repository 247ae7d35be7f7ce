package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensholdgaard/auction-desk/internal/announce"
	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/clock"
	"github.com/jensholdgaard/auction-desk/internal/config"
	"github.com/jensholdgaard/auction-desk/internal/health"
	"github.com/jensholdgaard/auction-desk/internal/leader"
	"github.com/jensholdgaard/auction-desk/internal/server"
	"github.com/jensholdgaard/auction-desk/internal/store"
	"github.com/jensholdgaard/auction-desk/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/auction-desk/internal/store/memstore"
	_ "github.com/jensholdgaard/auction-desk/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	backend, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer backend.Closer.Close()

	logger.InfoContext(ctx, "storage ready", slog.String("driver", cfg.Database.Driver))

	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: backend.Ping,
		},
	)

	// Health server runs on all replicas, leader or not.
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           healthHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.InfoContext(ctx, "starting health server", slog.Int("port", cfg.Server.HealthPort))
		if listenErr := healthServer.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "health server error", slog.Any("error", listenErr))
		}
	}()

	// startDesk restores the session and serves the operator API. With leader
	// election enabled only the leader runs it, so there is never a second
	// writer against the snapshot tables.
	startDesk := func(ctx context.Context) {
		session, restoreErr := auction.Restore(ctx, backend.Snapshots, logger, tp.TracerProvider, clk)
		if restoreErr != nil {
			logger.ErrorContext(ctx, "session restore failed", slog.Any("error", restoreErr))
			return
		}

		var announcer *announce.Announcer
		if cfg.Announce.Enabled {
			a, announceErr := announce.New(cfg.Announce, logger)
			if announceErr != nil {
				logger.ErrorContext(ctx, "announcer setup failed, continuing without", slog.Any("error", announceErr))
			} else {
				announcer = a
				session.SetNotifier(announcer)
			}
		}

		api := server.New(session, cfg.Auction, logger)
		apiServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.InfoContext(ctx, "starting operator API", slog.Int("port", cfg.Server.Port))
			if listenErr := apiServer.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
				logger.ErrorContext(ctx, "operator API error", slog.Any("error", listenErr))
			}
		}()

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctiondesk is running", slog.String("version", version))

		// Block until leadership is lost or the process is shutting down.
		<-ctx.Done()

		healthHandler.SetReady(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if shutdownErr := apiServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("operator API shutdown error", slog.Any("error", shutdownErr))
		}
		if announcer != nil {
			if closeErr := announcer.Close(); closeErr != nil {
				logger.Error("announcer shutdown error", slog.Any("error", closeErr))
			}
		}
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, startDesk, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		startDesk(ctx)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
