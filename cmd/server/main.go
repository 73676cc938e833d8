package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/health"

	grpcadapter "github.com/simaogato/moneyjar/internal/adapter/grpc"
	"github.com/simaogato/moneyjar/internal/adapter/pricing"
	"github.com/simaogato/moneyjar/internal/adapter/rest"
	"github.com/simaogato/moneyjar/internal/app"
	"github.com/simaogato/moneyjar/internal/config"
	"github.com/simaogato/moneyjar/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 2. Setup Database (runs pending migrations)
	db, store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open database")
	}
	defer db.Close()

	// 3. Initialize Services (Use Cases)
	services := app.NewServices(cfg, store, log)

	// 4. Price poller for users looking at their holdings
	poller := pricing.NewPoller(cfg.PricePollInterval, services.Investments.RefreshPrices,
		log.With().Str("component", "poller").Logger())
	go poller.Run(ctx)

	// 5. HTTP API
	router := rest.NewRouter(rest.RouterConfig{
		GinMode:   cfg.GinMode,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	}, &rest.Handler{
		Accounts:    services.Accounts,
		Ledger:      services.Ledger,
		Investments: services.Investments,
		Budgets:     services.Budgets,
		Disposable:  services.Disposable,
		Savings:     services.Savings,
		NetWorth:    services.NetWorth,
		Activity:    poller,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	// 6. gRPC query service
	grpcServer, healthServer := grpcadapter.NewGRPCServer(cfg.JWTSecret,
		grpcadapter.NewServer(services.NetWorth, services.Disposable, services.Investments))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("Failed to listen")
	}
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	waitForShutdown(log, httpServer, grpcServer, healthServer)
}

// waitForShutdown drains both servers after SIGTERM or SIGINT
func waitForShutdown(log zerolog.Logger, httpServer *http.Server, grpcServer *grpclib.Server, healthServer *health.Server) {
	log.Info().Msg("Shutting down gracefully...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()
	log.Info().Msg("Servers stopped")
}
