// Package app wires configuration, storage, transport and services into a
// running creator console.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/api"
	"github.com/jonuar/Donacrypto/internal/api/handler"
	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/core/service"
	"github.com/jonuar/Donacrypto/internal/infrastructure/db/memory"
	mongostore "github.com/jonuar/Donacrypto/internal/infrastructure/db/mongo"
	redisstore "github.com/jonuar/Donacrypto/internal/infrastructure/db/redis"
	sqlitestore "github.com/jonuar/Donacrypto/internal/infrastructure/db/sqlite"
	"github.com/jonuar/Donacrypto/internal/infrastructure/queue"
	"github.com/jonuar/Donacrypto/internal/infrastructure/transport"
	"github.com/jonuar/Donacrypto/internal/pkg/config"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

// App holds the wired components. Close releases the stores and stops event
// delivery.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Durable   ports.Scope
	Ephemeral ports.Scope
	Events    *queue.Notifier
	Session   *service.SessionService
	Dashboard *service.DashboardService

	closeDurable func(context.Context) error
}

// New opens the durable scope selected by cfg and builds the services.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	durable, closeDurable, err := OpenDurable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := Build(cfg, durable, memory.NewScope(), log)
	a.closeDurable = closeDurable
	return a, nil
}

// Build wires the services over already opened scopes.
func Build(cfg *config.Config, durable, ephemeral ports.Scope, log zerolog.Logger) *App {
	validate := validation.New()
	events := queue.NewNotifier(log.With().Str("component", "events").Logger())
	vault := service.NewTokenVault(durable, ephemeral, log.With().Str("component", "vault").Logger())

	client := transport.New(transport.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, vault, log.With().Str("component", "transport").Logger())

	session := service.NewSessionService(client, vault, events, validate, log.With().Str("component", "session").Logger())
	client.OnUnauthorized(session.HandleUnauthorized)

	dashboard := service.NewDashboardService(client, validate, service.DashboardOptions{
		PostsPageSize:     cfg.Dashboard.PostsPageSize,
		FollowersPageSize: cfg.Dashboard.FollowersPageSize,
	}, log.With().Str("component", "dashboard").Logger())
	session.OnTeardown(func(domain.TeardownReason) { dashboard.Reset() })

	return &App{
		Config:    cfg,
		Log:       log,
		Durable:   durable,
		Ephemeral: ephemeral,
		Events:    events,
		Session:   session,
		Dashboard: dashboard,
	}
}

// OpenDurable opens the remember-me store named by cfg.Storage.Durable.
func OpenDurable(ctx context.Context, cfg *config.Config) (ports.Scope, func(context.Context) error, error) {
	switch cfg.Storage.Durable {
	case config.StoreRedis:
		s, err := redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Storage.Namespace,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil
	case config.StoreMongo:
		s, err := mongostore.Open(ctx, mongostore.Config{
			URI:       cfg.Mongo.URI,
			Database:  cfg.Mongo.Database,
			Namespace: cfg.Storage.Namespace,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreSQLite:
		s, err := sqlitestore.Open(cfg.SQLite.Path, cfg.Storage.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown durable store %q", cfg.Storage.Durable)
	}
}

// Router builds the local gateway over the app's services.
func (a *App) Router() *echo.Echo {
	return api.NewRouter(api.Deps{
		Session:   a.Session,
		Dashboard: a.Dashboard,
		Ready: map[string]handler.Pinger{
			"durable_store": a.Durable,
		},
		RequiredCurrencies: a.Config.Dashboard.RequiredCurrencies,
		Log:                a.Log.With().Str("component", "gateway").Logger(),
	})
}

// LogSessionEvents subscribes a logger to session lifecycle events.
func (a *App) LogSessionEvents() (unsubscribe func()) {
	log := a.Log.With().Str("component", "session_events").Logger()
	return a.Session.Subscribe(func(ev domain.SessionEvent) {
		e := log.Info().Str("kind", string(ev.Kind))
		if ev.Reason != "" {
			e = e.Str("reason", string(ev.Reason))
		}
		if ev.User != nil {
			e = e.Str("username", ev.User.Username)
		}
		e.Msg("session event")
	})
}

// Close stops event delivery and releases the durable store. Subscribers
// still running when ctx ends are left to drain; the store is closed anyway.
func (a *App) Close(ctx context.Context) error {
	drainErr := a.Events.Shutdown(ctx)
	if drainErr != nil {
		drainErr = fmt.Errorf("app: drain session events: %w", drainErr)
	}
	if a.closeDurable == nil {
		return drainErr
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.closeDurable(ctx); err != nil {
		return errors.Join(drainErr, fmt.Errorf("app: close durable store: %w", err))
	}
	return drainErr
}
