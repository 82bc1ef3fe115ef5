// Command cadkeys attaches keyboard-driven augmentation to a running OCP
// CAD viewer page: camera/toggle key bindings, mm ↔ fractional-inch unit
// switching, a copy-button overlay on measurement panels, and vim-style
// yank sequences.
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

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/cadkeys/augment"
	"github.com/hazyhaar/cadkeys/control"
	"github.com/hazyhaar/cadkeys/journal"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML configuration file")
		pageURL     = flag.String("url", "", "viewer page URL (overrides config)")
		remote      = flag.String("remote", "", "WebSocket URL of a running Chrome (overrides config)")
		controlAddr = flag.String("control", "", "HTTP control API address, e.g. 127.0.0.1:8377")
		mcpStdio    = flag.Bool("mcp", false, "serve MCP tools on stdio")
		journalPath = flag.String("journal", "", "SQLite action journal path")
		logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	var lvl slog.Level
	switch *logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// MCP stdio owns stdout, logs go to stderr either way.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if *pageURL != "" {
		cfg.Page.URL = *pageURL
	}
	if *remote != "" {
		cfg.Browser.Remote = *remote
	}
	if *controlAddr != "" {
		cfg.Control.Addr = *controlAddr
	}
	if *mcpStdio {
		cfg.Control.MCP = true
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("cadkeys", "error", err)
		os.Exit(1)
	}
	slog.Info("cadkeys stopped")
}

func loadConfig(path string) (*augment.Config, error) {
	if path == "" {
		return augment.DefaultConfig(), nil
	}
	return augment.LoadConfig(path)
}

func run(ctx context.Context, cfg *augment.Config, logger *slog.Logger) error {
	if cfg.Page.URL == "" {
		return fmt.Errorf("viewer URL required (-url or page.url in config)")
	}

	var store *journal.Store
	if cfg.Journal.Path != "" {
		var err error
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("journal enabled", "path", cfg.Journal.Path)
	}

	sess, err := augment.OpenSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := augment.Options{
		Page:   sess.Page(),
		Config: cfg,
		Logger: logger,
	}
	if store != nil {
		opts.Journal = store
	}
	aug := augment.New(opts)

	if err := aug.WaitReady(ctx); err != nil {
		return err
	}
	if err := sess.Attach(ctx); err != nil {
		return err
	}

	if cfg.Control.Addr != "" {
		var jr control.JournalReader
		if store != nil {
			jr = store
		}
		srv := &http.Server{
			Addr:              cfg.Control.Addr,
			Handler:           control.NewRouter(aug, jr),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			logger.Info("control API starting", "addr", cfg.Control.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("control API", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Control.MCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "cadkeys",
			Version: "1.0.0",
		}, nil)
		control.RegisterMCP(mcpSrv, aug)
		go func() {
			logger.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Error("MCP stdio", "error", err)
			}
		}()
	}

	return aug.Run(ctx)
}
