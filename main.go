package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"powercast/config"
	qhttp "powercast/http"
	"powercast/ml"
	"powercast/monitoring"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		variant    string
	)

	cmd := &cobra.Command{
		Use:          "powercast",
		Short:        "Serve household power predictions over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, variant, os.Getenv)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&variant, "variant", "", "deployment variant (production or development), overrides the config file")

	return cmd
}

// loadConfig reads the file, applies a --variant override and resolves defaults.
func loadConfig(path, variant string, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if variant != "" {
		cfg.Server.Variant = variant
	}
	if err := cfg.Finalize(getenv); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	logger, err := monitoring.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// 1. Load model
	model, err := ml.LoadModel(cfg.Model.Type, cfg.ModelPath())
	if err != nil {
		logger.Error("failed to load model", zap.String("path", cfg.ModelPath()), zap.Error(err))
		return err
	}
	logger.Info("model loaded",
		zap.String("path", cfg.ModelPath()),
		zap.String("type", fmt.Sprintf("%T", model)))

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
	}

	if cfg.Model.CacheSize > 0 {
		cached, err := ml.NewCachedModel(model, cfg.Model.CacheSize)
		if err != nil {
			return fmt.Errorf("init prediction cache: %w", err)
		}
		metrics.RegisterCache(cached)
		model = cached
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Model.Watch {
		watcher, err := ml.NewArtifactWatcher(cfg.ModelPath(), logger)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	// 2. Start HTTP server
	server := qhttp.NewServer(serverConfig(cfg), model, logger, metrics)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 3. Handle graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
		return err
	}

	logger.Info("exiting")
	return nil
}

func serverConfig(cfg *config.Config) qhttp.ServerConfig {
	sc := qhttp.ServerConfig{
		Addr:         cfg.Addr(),
		Route:        cfg.Server.Route,
		Timeout:      cfg.Server.Timeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ErrorMode:    cfg.Server.ErrorMode,
		CORSEnabled:  cfg.CORSEnabled(),
		CORS: qhttp.CORSConfig{
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			AllowedHeaders: cfg.Server.CORS.AllowedHeaders,
			AllowedMethods: cfg.Server.CORS.AllowedMethods,
			MaxAge:         cfg.Server.CORS.MaxAge,
		},
	}
	if cfg.Server.HealthRoute != nil {
		sc.HealthRoute = *cfg.Server.HealthRoute
	}
	if cfg.Metrics.Enabled {
		sc.MetricsRoute = cfg.Metrics.Route
	}
	return sc
}
