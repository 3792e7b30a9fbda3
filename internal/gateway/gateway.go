// ABOUTME: Service orchestrator wiring store, manager, and protocol adapters
// ABOUTME: Manages the HTTP server lifecycle and graceful shutdown

// Package gateway assembles the content service: one SQLite store, one
// manager, and the MCP and REST adapters sharing a single HTTP server.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/contentd/contentd/internal/config"
	"github.com/contentd/contentd/internal/content"
	"github.com/contentd/contentd/internal/mcp"
	"github.com/contentd/contentd/internal/store"
	"github.com/contentd/contentd/internal/web"
)

// Version is the service version reported by initialize and /info.
const Version = "1.0.0"

// Gateway orchestrates the contentd server components.
type Gateway struct {
	config     *config.Config
	store      store.Store
	manager    *content.Manager
	mcpServer  *mcp.Server
	webServer  *web.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a fully wired gateway from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	st, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	manager := content.NewManagerWithLimits(st, content.Limits{
		DefaultPageSize: cfg.Content.DefaultPageSize,
		MaxPageSize:     cfg.Content.MaxPageSize,
	})
	info := mcp.ServerInfo{Name: cfg.Server.Name, Version: Version}

	g := &Gateway{
		config:    cfg,
		store:     st,
		manager:   manager,
		mcpServer: mcp.NewServer(manager, info, logger),
		webServer: web.NewServer(manager, info, cfg.View(), logger),
		logger:    logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	g.mcpServer.RegisterRoutes(mux)
	g.webServer.RegisterRoutes(mux)

	g.httpServer = &http.Server{
		Handler:           web.CORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// initStore creates the store from config, honoring the CONTENTD_DB_PATH
// environment override.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("CONTENTD_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return st, nil
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails, then shuts everything down.
func (g *Gateway) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	errCh := g.startServer(listener)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func (g *Gateway) startServer(listener net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", listener.Addr().String())
		if err := g.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or a server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down")

	var firstErr error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		g.logger.Error("HTTP server shutdown failed", "error", err)
		firstErr = err
	}

	if err := g.store.Close(); err != nil {
		g.logger.Error("store close failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	g.logger.Info("shutdown complete")
	return firstErr
}

// Handler exposes the fully wired HTTP handler, used by tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}
