package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"

	"github.com/paulexconde/surveychat/internal/api"
	"github.com/paulexconde/surveychat/internal/config"
	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/cache"
	"github.com/paulexconde/surveychat/internal/pkg/store"
	"github.com/paulexconde/surveychat/internal/repositories"
	"github.com/paulexconde/surveychat/internal/services"
)

const connectTimeout = 10 * time.Second

var StoreModule = fx.Provide(
	provideDB,
	func(db *sqlx.DB) store.Datastorer[models.Survey] {
		return store.NewDataStore[models.Survey](db, "surveys")
	},
	func(db *sqlx.DB) store.Datastorer[models.SurveyResponse] {
		return store.NewDataStore[models.SurveyResponse](db, "survey_responses")
	},
)

var CacheModule = fx.Provide(provideCache)

var RepositoryModule = fx.Provide(
	repositories.NewSurveyRepository,
	repositories.NewResponseRepository,
	repositories.NewSessionRepository,
)

var ServiceModule = fx.Provide(
	services.NewSurveyService,
	services.NewResponseService,
	services.NewChatService,
	func(cfg config.Config) services.SessionTTLs {
		return services.SessionTTLs{Active: cfg.ActiveSessionTTL, Suspended: cfg.SuspendedSessionTTL}
	},
	services.NewSessionService,
)

var HTTPModule = fx.Options(
	fx.Provide(
		api.NewHealthController,
		api.NewSurveyController,
		api.NewChatController,
		api.NewRouter,
		provideServer,
	),
	fx.Invoke(startServer),
)

func provideDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing database")
			return db.Close()
		},
	})

	return db, nil
}

func provideCache(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (cache.Store, error) {
	switch cfg.CacheDriver {
	case config.CacheRedis:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Info("Closing redis client")
				return client.Close()
			},
		})

		logger.Info("Using redis session cache")
		return cache.NewRedis(client), nil
	case config.CacheMemory:
		logger.Info("Using in-memory session cache")
		return cache.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.CacheDriver)
	}
}

func provideServer(cfg config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func startServer(lc fx.Lifecycle, srv *http.Server, chat *api.ChatController, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", "error", err)
				}
			}()

			logger.Info("Starting HTTP server", "addr", ln.Addr().String())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			// hijacked websocket connections are not covered by Shutdown
			return chat.Shutdown(ctx)
		},
	})
}
