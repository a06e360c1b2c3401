package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"outmentor/auth"
	"outmentor/contract"
	"outmentor/domain"
	"outmentor/infrastructure/api"
	"outmentor/infrastructure/grpc/server"
	httpx "outmentor/infrastructure/http"
	"outmentor/infrastructure/meeting"
	"outmentor/internal"
	"outmentor/repositories"
	"outmentor/repositories/postgres"
	"outmentor/runtime"
	"outmentor/runtime/workers"
	index "outmentor/search"
	"outmentor/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

type stores struct {
	profiles    repositories.IProfileRepository
	connections repositories.IConnectionRepository
	messages    repositories.IMessageRepository
	meetings    repositories.IMeetingRepository
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups run before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	policy, err := services.ParsePolicy(config.ConnectionPolicy)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage: Badger always backs the inspector, Postgres optionally backs the records
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	var st stores
	switch config.StoreDriver {
	case internal.StorePostgres:
		if err := postgres.Migrate(ctx, config.PostgresDSN, logger); err != nil {
			return exitRuntime, fmt.Errorf("migration failed: %w", err)
		}
		pool, err := postgres.Open(ctx, config.PostgresDSN)
		if err != nil {
			return exitRuntime, fmt.Errorf("postgres opening failed: %w", err)
		}
		defer pool.Close()
		st = stores{
			profiles:    postgres.NewProfileRepository(pool),
			connections: postgres.NewConnectionRepository(pool),
			messages:    postgres.NewMessageRepository(pool),
			meetings:    postgres.NewMeetingRepository(pool),
		}
	default:
		st = stores{
			profiles:    repositories.NewProfileRepository(db, logger),
			connections: repositories.NewConnectionRepository(db, logger),
			messages:    repositories.NewMessageRepository(db, logger, config.LimitMessages),
			meetings:    repositories.NewMeetingRepository(db, logger),
		}
	}
	logger.Info("Store ready", "driver", config.StoreDriver)

	// 3. Search index, rebuilt from the profile store at start-up
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()
	profileIndex := index.NewProfileIndex(blugeWriter, logger)
	all, err := st.profiles.All(ctx)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to load profiles: %w", err)
	}
	if err := profileIndex.Rebuild(all); err != nil {
		return exitRuntime, fmt.Errorf("failed to rebuild profile index: %w", err)
	}
	logger.Info("Profile index rebuilt", "profiles", len(all))

	// 4. Runtime: hub, supervision and orchestration
	monitoring := domain.NewMonitoring()
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	hub := runtime.NewHub(logger, st.messages, config.QueueSize)
	var orchestrator contract.IOrchestrator = runtime.NewOrchestrator(logger, sup, hub, monitoring,
		config.MaxIdle, config.MetricInterval, config.QueueSize)

	if logger.Enabled(ctx, slog.LevelDebug) {
		debug := internal.StartDebugServer(logger, db, config.DebugPort, "/inspect", func() map[string]any {
			stats := hub.Stats()
			return map[string]any{
				"channels":    stats.Channels,
				"subscribers": stats.Subscribers,
				"queued":      stats.Queued,
				"restarts":    sup.Restarts(),
			}
		})
		defer func() { _ = debug.Close() }()
	}

	// 5. Services
	links, err := meeting.NewLinkProvider(config.MeetingBaseURL, config.MeetingSecret)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	svc := services.Services{
		Log:         logger,
		Directory:   services.NewDirectoryService(logger, st.profiles, profileIndex, config.SearchCap),
		Connections: services.NewConnectionService(logger, st.profiles, st.connections, policy),
		Channel:     services.NewChannelService(logger, st.connections, st.messages, hub, config.MaxMessageLength),
		Meetings:    services.NewMeetingService(logger, st.connections, st.meetings, links),
	}
	verifier := auth.NewVerifier(config.JWTSecret, config.JWTIssuer)

	var limiter httpx.IRateLimiter = httpx.NewMemoryRateLimiter(config.SendRateLimit, config.SendRateWindow)
	if config.RedisAddr != "" {
		client, err := httpx.NewRedisClient(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
		if err != nil {
			return exitRuntime, fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
		}
		limiter = httpx.NewRedisRateLimiter(client, logger, config.SendRateLimit, config.SendRateWindow)
	}
	defer func() { _ = limiter.Close() }()

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)

	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 7. gRPC server
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			verifier.UnaryInterceptor,
		),
		grpc.ChainStreamInterceptor(verifier.StreamInterceptor),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    config.HeartbeatInterval,
			Timeout: 10 * time.Second,
		}),
	)
	api.RegisterMatchmakingServer(s, server.NewMatchmakingServer(logger, svc, config.HeartbeatInterval))

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. HTTP server: WebSocket gateway and health
	gateway := httpx.NewGateway(logger, svc, verifier, limiter, config.HeartbeatInterval)
	httpServer := httpx.NewServer(
		net.JoinHostPort(config.Host, strconv.Itoa(config.HTTPPort)),
		httpx.NewRouter(logger, gateway, monitoring),
	)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		s.Stop()
		orchestrator.Stop()
		return exitRuntime, err
	}

	// 10. Graceful shutdown: the hub ends live feeds so streams and sockets can finish
	logger.Info("Shutting down gracefully...")
	orchestrator.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	s.GracefulStop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
