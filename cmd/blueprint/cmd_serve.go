package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hpn/hpn-blueprint/internal/adapter"
	"github.com/hpn/hpn-blueprint/internal/config"
	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/generator"
	"github.com/hpn/hpn-blueprint/internal/handler"
	"github.com/hpn/hpn-blueprint/internal/transcript"
	"github.com/hpn/hpn-blueprint/internal/ui"
)

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

// buildGenerator wires a Generator from configuration.
func buildGenerator(cfg *config.Configuration, ring *domain.KeyRing, logger *slog.Logger, observer generator.Observer) (*generator.Generator, error) {
	counter, err := generator.NewTokenCounter(cfg.Generation.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}

	var recorder transcript.Recorder = transcript.Nop{}
	if cfg.Transcript.Enabled {
		fr, err := transcript.NewFileRecorder(cfg.Transcript.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript dir: %w", err)
		}
		recorder = fr
	}

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithRecorder(recorder),
		generator.WithTokenCounter(counter),
		generator.WithKeyRing(ring),
		generator.WithMaxRetries(cfg.KeyPool.RetryCount),
		generator.WithConcurrency(cfg.Generation.Concurrency),
		generator.WithProviders(cfg.ProviderList()),
		generator.WithMaxTokens(cfg.Generation.MaxTokens),
		generator.WithTemperature(cfg.Generation.Temperature),
		generator.WithDefaultProjectType(cfg.Generation.DefaultProjectType),
		generator.WithAdapterOptions(adapter.WithTimeout(cfg.VendorTimeout())),
	}
	if observer != nil {
		opts = append(opts, generator.WithObserver(observer))
	}
	return generator.New(opts...), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	if noColor {
		ui.Disable()
	}
	console := ui.NewConsole(os.Stdout)
	console.Banner(version)

	ring := cfg.KeyRing()
	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Int("active_keys", len(cfg.GetActiveKeys())),
		slog.Duration("cooldown", cfg.Cooldown()),
		slog.String("tokenizer", cfg.Generation.Tokenizer),
	)

	gen, err := buildGenerator(cfg, ring, logger, console)
	if err != nil {
		return err
	}

	var cache *handler.FlashCache
	if cfg.Cache.Enabled {
		cache = handler.NewFlashCache(
			handler.WithCacheTTL(cfg.CacheTTL()),
			handler.WithCacheLogger(logger),
		)
		defer cache.Close()
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.New(gen, handler.WithLogger(logger), handler.WithKeyRing(ring))
	router := handler.NewRouter(h, handler.RouterConfig{
		BodyLimit:      cfg.BodyLimit(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Cache:          cache,
		Console:        console,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", addr))
		console.StartupInfo(addr, ring.Stats(), handler.Endpoints())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	console.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped gracefully")
	console.Goodbye()
	return nil
}
