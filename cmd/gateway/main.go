// In file: cmd/gateway/main.go
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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wordware-gateway/internal/mcpserver"
	"wordware-gateway/internal/stats"
	"wordware-gateway/internal/tools"
	"wordware-gateway/internal/wordware"
)

const serverName = "wordware-tools"

// main is the composition root: it loads configuration, resolves and
// registers the configured flows, and serves them over the selected MCP
// transport plus the optional REST surface.
func main() {
	transport := flag.String("transport", "stdio", "MCP transport to use (stdio or sse)")
	host := flag.String("host", "127.0.0.1", "host to bind to (for sse transport)")
	port := flag.Int("port", 8000, "port to bind to (for sse transport)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	buildInfo := GetBuildInfo()
	logger.Info("🚀 starting wordware gateway",
		zap.String("version", buildInfo.Version),
		zap.String("commit", buildInfo.GitCommit),
		zap.String("transport", *transport))

	// 1. LOAD CONFIGURATION
	cfg := LoadConfig(logger)

	// 2. INITIALIZE SERVICES
	tracker := initializeTracker(cfg, logger)

	clientOpts := []wordware.Option{
		wordware.WithAPIURL(cfg.APIURL),
		wordware.WithRunVersion(cfg.RunVersion),
		wordware.WithLogger(logger),
	}
	if cfg.StreamBudget > 0 {
		clientOpts = append(clientOpts, wordware.WithStreamBudget(cfg.StreamBudget))
	}
	client := wordware.NewClient(cfg.APIKey, clientOpts...)

	// 3. RESOLUTION AND REGISTRATION PHASE
	// Runs once before steady-state invocation traffic; a tool whose
	// metadata cannot be fetched is skipped, the others proceed.
	registry := tools.NewRegistry()
	registerFlows(cfg, client, tracker, registry, logger)
	logger.Info("✅ tool registry initialized", zap.Int("tools", registry.ToolCount()))

	mcpSrv := mcpserver.New(serverName, buildInfo.Version, registry, logger)

	// 4. OPTIONAL REST SURFACE
	var restSrv *http.Server
	if cfg.HTTPPort != "" {
		restSrv = startRESTServer(cfg, client, tracker, registry, logger)
	}

	// 5. SERVE THE MCP TRANSPORT
	switch *transport {
	case "sse":
		runSSEWithGracefulShutdown(mcpSrv, fmt.Sprintf("%s:%d", *host, *port), restSrv, logger)
	default:
		if err := mcpSrv.ServeStdio(); err != nil {
			logger.Error("stdio server exited", zap.Error(err))
		}
		shutdownRESTServer(restSrv, logger)
	}

	logger.Info("👋 gateway exited")
}

// newLogger builds the process-wide structured logger.
func newLogger(debug bool) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if debug {
		zapCfg = zap.NewDevelopmentConfig()
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// initializeTracker connects the optional Redis-backed run statistics
// tracker. Stats are a convenience, so a missing or unreachable Redis only
// disables them.
func initializeTracker(cfg *AppConfig, logger *zap.Logger) *stats.Tracker {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Warn("could not connect to Redis, run statistics disabled",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return nil
	}
	logger.Info("✅ run statistics tracker connected", zap.String("addr", cfg.RedisAddr))
	return stats.NewTracker(rdb, logger)
}

// registerFlows resolves each configured flow and registers it as a tool.
func registerFlows(cfg *AppConfig, client *wordware.Client, tracker *stats.Tracker, registry *tools.Registry, logger *zap.Logger) {
	// tracker is declared as the interface the tool consumes so a nil
	// tracker stays a nil interface.
	var recorder tools.RunRecorder
	if tracker != nil {
		recorder = tracker
	}

	for _, toolCfg := range cfg.Tools {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		descriptor, err := client.ResolveTool(ctx, toolCfg.ID)
		cancel()
		if err != nil {
			logger.Error("skipping tool, metadata resolution failed",
				zap.String("tool_id", toolCfg.ID), zap.Error(err))
			continue
		}
		registry.Register(tools.NewFlowTool(descriptor, client, recorder, logger))
		logger.Info("tool registered",
			zap.String("name", descriptor.Name),
			zap.String("tool_id", descriptor.ID),
			zap.Bool("kwargs_wrapper", descriptor.RequiresKwargsWrapper))
	}
}

// startRESTServer launches the gin REST surface in the background.
func startRESTServer(cfg *AppConfig, client *wordware.Client, tracker *stats.Tracker, registry *tools.Registry, logger *zap.Logger) *http.Server {
	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.New()
	engine.Use(gin.Recovery())

	handler := NewGatewayHandler(registry, client, tracker, logger)
	handler.RegisterRoutes(engine)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: engine}
	go func() {
		logger.Info("👂 REST surface listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("REST server exited", zap.Error(err))
		}
	}()
	return srv
}

// runSSEWithGracefulShutdown serves the MCP SSE transport until a signal
// arrives, then stops the REST surface.
func runSSEWithGracefulShutdown(mcpSrv *mcpserver.Server, addr string, restSrv *http.Server, logger *zap.Logger) {
	go func() {
		if err := mcpSrv.ServeSSE(addr); err != nil {
			logger.Error("SSE server exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 shutting down")
	shutdownRESTServer(restSrv, logger)
}

func shutdownRESTServer(srv *http.Server, logger *zap.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("REST server shutdown failed", zap.Error(err))
	}
}
