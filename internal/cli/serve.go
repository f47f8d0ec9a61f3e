package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/paulexconde/surveychat/internal/app"
	"github.com/paulexconde/surveychat/internal/config"
)

// NewServeCommand creates the serve command. Flags override the environment.
func NewServeCommand() *cobra.Command {
	var overrides config.Config

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the HTTP and websocket server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyOverrides(cmd, &cfg, overrides)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			slog.SetDefault(logger)

			return serve(cmd.Context(), cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&overrides.HTTPAddr, "addr", "", "listen address (HTTP_ADDR)")
	f.StringVar(&overrides.DBDriver, "db-driver", "", "database driver: sqlite3 or postgres (DB_DRIVER)")
	f.StringVar(&overrides.DatabaseURL, "database-url", "", "database DSN (DATABASE_URL)")
	f.StringVar(&overrides.CacheDriver, "cache", "", "session cache: memory or redis (CACHE_DRIVER)")
	f.StringVar(&overrides.RedisURL, "redis-url", "", "redis URL (REDIS_URL)")
	f.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	f.StringVar(&overrides.LogFormat, "log-format", "", "text or json (LOG_FORMAT)")

	return cmd
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config, o config.Config) {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}

	set("addr", &cfg.HTTPAddr, o.HTTPAddr)
	set("db-driver", &cfg.DBDriver, o.DBDriver)
	set("database-url", &cfg.DatabaseURL, o.DatabaseURL)
	set("cache", &cfg.CacheDriver, o.CacheDriver)
	set("redis-url", &cfg.RedisURL, o.RedisURL)
	set("log-level", &cfg.LogLevel, o.LogLevel)
	set("log-format", &cfg.LogFormat, o.LogFormat)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fxApp := app.New(cfg, logger)

	startCtx, cancelStart := context.WithTimeout(ctx, fxApp.StartTimeout())
	defer cancelStart()

	if err := fxApp.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	select {
	case sig := <-fxApp.Wait():
		logger.Info("Shutting down", "signal", sig.Signal)
	case <-ctx.Done():
		logger.Info("Shutting down", "reason", ctx.Err())
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()

	return fxApp.Stop(stopCtx)
}
