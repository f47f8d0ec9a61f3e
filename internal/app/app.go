// Package app wires the service together with fx.
package app

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/paulexconde/surveychat/internal/config"
)

// Options returns the full dependency graph of the server.
func Options(cfg config.Config, logger *slog.Logger) fx.Option {
	return fx.Options(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l}
		}),
		StoreModule,
		CacheModule,
		RepositoryModule,
		ServiceModule,
		HTTPModule,
	)
}

// New builds the server application. Run it with fx.App.Run.
func New(cfg config.Config, logger *slog.Logger) *fx.App {
	return fx.New(Options(cfg, logger))
}
