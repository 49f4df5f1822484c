package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sizewatch/internal/config"
	"sizewatch/internal/httpapi"
	"sizewatch/internal/scene"
	"sizewatch/internal/scheduler"
	"sizewatch/internal/service"
	"sizewatch/pkg/dom"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func buildRootCmd() *cobra.Command {
	var (
		cfgPath     string
		addr        string
		scenePath   string
		refreshMS   int
		logLevel    string
		corsEnabled bool
		corsOrigins []string
	)

	root := &cobra.Command{
		Use:           "sizewatchd",
		Short:         "Content-dimension change detection daemon over a hosted document",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{
				Addr:              addr,
				ScenePath:         scenePath,
				RefreshIntervalMS: refreshMS,
				LogLevel:          logLevel,
				CORSEnabled:       corsEnabled,
				CORSOrigins:       corsOrigins,
			}
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				// Explicit flags win over file values.
				if !cmd.Flags().Changed("addr") && fileCfg.Addr != "" {
					cfg.Addr = fileCfg.Addr
				}
				if !cmd.Flags().Changed("scene") && fileCfg.ScenePath != "" {
					cfg.ScenePath = fileCfg.ScenePath
				}
				if !cmd.Flags().Changed("refresh-interval-ms") && fileCfg.RefreshIntervalMS != 0 {
					cfg.RefreshIntervalMS = fileCfg.RefreshIntervalMS
				}
				if !cmd.Flags().Changed("log-level") && fileCfg.LogLevel != "" {
					cfg.LogLevel = fileCfg.LogLevel
				}
				if !cmd.Flags().Changed("cors-enabled") {
					cfg.CORSEnabled = fileCfg.CORSEnabled
				}
				if !cmd.Flags().Changed("cors-origins") && len(fileCfg.CORSOrigins) > 0 {
					cfg.CORSOrigins = fileCfg.CORSOrigins
				}
			}
			return run(cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", envOr("SIZEWATCH_CONFIG", ""), "Path to config file (.yaml/.json/.toml)")
	root.Flags().StringVar(&addr, "addr", envOr("SIZEWATCH_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	root.Flags().StringVar(&scenePath, "scene", envOr("SIZEWATCH_SCENE", ""), "Path to scene YAML describing the hosted document")
	root.Flags().IntVar(&refreshMS, "refresh-interval-ms", envOrInt("SIZEWATCH_REFRESH_MS", 20), "Minimum interval between throttled refresh executions")
	root.Flags().StringVar(&logLevel, "log-level", envOr("SIZEWATCH_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.Flags().BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS for the HTTP API")
	root.Flags().StringSliceVar(&corsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")

	return root
}

func run(cfg config.Config) error {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
	scheduler.SetLogger(logger)
	httpapi.SetLogger(logger)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins)

	// The singleton scheduler binds to the default host on first use, so
	// both must be configured before any observer exists.
	host := dom.New()
	dom.SetDefault(host)
	scheduler.SetDefaultRefreshInterval(time.Duration(cfg.RefreshIntervalMS) * time.Millisecond)
	sched := scheduler.Instance()

	svc := service.New(host, sched, logger)
	if cfg.ScenePath != "" {
		if err := svc.LoadScene(cfg.ScenePath); err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
		watcher, err := scene.Watch(cfg.ScenePath, svc.ReloadScene)
		if err != nil {
			return fmt.Errorf("watch scene: %w", err)
		}
		defer watcher.Close()
	}

	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("scene", cfg.ScenePath).
			Msg("sizewatchd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
