// Package app wires configuration into stores, sinks and services. The HTTP server and the
// matchgen CLI both start from Build.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"wedmatch_server/config"
	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/notify"
	"wedmatch_server/reports"
	"wedmatch_server/services"
	"wedmatch_server/socket"
	"wedmatch_server/storage"
	"wedmatch_server/storage/dynamostore"
	"wedmatch_server/storage/memstore"
	"wedmatch_server/storage/sqlstore"
)

// App holds the constructed engine.
type App struct {
	Config       *config.Config
	Log          *logger.Logger
	Store        storage.Store
	EngineConfig models.EngineConfig
	Socket       *socket.Server
	Archive      *reports.S3Archive
	Interactions *services.InteractionService
	Matches      *services.MatchService
	Openings     *services.OpeningService
	Generator    *services.MatchGenerator

	closers []func() error
}

// Build constructs every component the config enables. withSocket is false for the CLI; the
// caller owns the socket server lifecycle.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, withSocket bool) (*App, error) {
	a := &App{Config: cfg, Log: log}

	store, err := OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	a.Store = store

	sinks := notify.Fanout{notify.NewLogSink(log)}
	if withSocket && cfg.Notify.Socket {
		a.Socket = socket.NewSocketServer(log)
		sinks = append(sinks, a.Socket)
	}
	if cfg.Notify.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Notify.RedisAddr})
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.Notify.RedisChannel))
		a.closers = append(a.closers, rdb.Close)
		log.Info("🔔 redis event sink enabled", "addr", cfg.Notify.RedisAddr, "channel", cfg.Notify.RedisChannel)
	}
	notifier := services.NewNotifier(sinks, log)

	var reportSink services.ReportSink
	if cfg.Report.S3Bucket != "" {
		a.Archive, err = reports.NewS3Archive(ctx, cfg.Store.AWSRegion, cfg.Report.S3Bucket, cfg.Report.S3Prefix, log)
		if err != nil {
			return nil, err
		}
		reportSink = a.Archive
	}

	a.EngineConfig = services.ResolveEngineConfig(config.NewSettings(cfg.Settings))
	profiles := services.StoreProfileStates{Profiles: store.Profiles()}

	a.Interactions = services.NewInteractionService(store, profiles, notifier, a.EngineConfig, log)
	a.Matches = services.NewMatchService(store, notifier, log)
	a.Openings = services.NewOpeningService(store, profiles, notifier, a.EngineConfig, log)
	a.Generator = services.NewMatchGenerator(services.StoreCohortSource{Profiles: store.Profiles()}, a.Matches, reportSink, notifier, log)

	log.Info("✅ engine initialized",
		"backend", cfg.Store.Backend,
		"max_scan", a.EngineConfig.MaxScan,
		"super_like_cap", a.EngineConfig.SuperLikeDailyCap,
	)
	return a, nil
}

// OpenStore selects the storage backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "dynamo":
		client, err := dynamostore.NewClient(ctx, cfg.AWSRegion, log)
		if err != nil {
			return nil, err
		}
		return dynamostore.New(client, dynamostore.DefaultTables(), log), nil
	case "postgres":
		return sqlstore.Open("postgres", cfg.PostgresDSN, log)
	case "sqlite":
		return sqlstore.Open("sqlite", cfg.SQLitePath, log)
	case "memory":
		log.Warn("⚠️ using in-memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Close releases sinks in reverse order of construction.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
}
