// cmd/worker-manager/catalog.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coach-matching/internal/api"
	"coach-matching/internal/catalog"
	"coach-matching/internal/common/config"
	"coach-matching/internal/common/database"
	apphttp "coach-matching/internal/common/http"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/sftpclient"
	"coach-matching/internal/geography"
)

const httpSourceTimeout = 30 * time.Second

type catalogDeps struct {
	cached  *catalog.CachedSource
	checks  map[string]api.Check
	closers []func() error
}

func (d *catalogDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// buildCatalog selects the configured source and wraps it in the cache layers.
func buildCatalog(ctx context.Context, cfg *config.Config, regions *geography.Table, zapLog *zap.Logger, log logger.Logger) (*catalogDeps, error) {
	deps := &catalogDeps{checks: make(map[string]api.Check)}
	loader := catalog.NewLoader(regions, log)

	var src catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		src = catalog.NewFileSource(cfg.Catalog.SourcePath, loader)

	case config.CatalogSourcePostgres:
		// --- Init PostgreSQL with retry ---
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)
		deps.checks["postgres"] = pg.Ping

		src, err = catalog.NewPostgresSource(pg.DB, cfg.Catalog.Table, loader)
		if err != nil {
			deps.Close()
			return nil, err
		}

	case config.CatalogSourceSFTP:
		sftpCfg := cfg.SFTP
		dial := func(ctx context.Context) (catalog.RemoteFS, error) {
			return sftpclient.Dial(ctx, sftpCfg)
		}
		src = catalog.NewSFTPSource(dial, cfg.Catalog.SourcePath, loader)

	case config.CatalogSourceHTTP:
		src = catalog.NewHTTPSource(apphttp.NewClient(httpSourceTimeout), cfg.Catalog.SourcePath, loader)

	default:
		return nil, fmt.Errorf("unsupported catalog source %q", cfg.Catalog.Source)
	}

	var shared *catalog.RedisCache
	if cfg.Catalog.RedisCacheEnabled && cfg.Catalog.CacheTTL() <= 0 {
		zapLog.Warn("catalog.redis_cache_enabled has no effect without catalog.cache_ttl_seconds")
	}
	if cfg.Catalog.RedisCacheEnabled && cfg.Catalog.CacheTTL() > 0 {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := rdb.Ping(ctx); err != nil {
			// the cache degrades to direct loads; keep going
			zapLog.Warn("redis unavailable at startup", zap.Error(err))
		}
		deps.closers = append(deps.closers, rdb.Close)
		deps.checks["redis"] = rdb.Ping
		shared = catalog.NewRedisCache(rdb.Client, cfg.Catalog.RedisKey, cfg.Catalog.CacheTTL())
	}

	deps.cached = catalog.NewCachedSource(src, cfg.Catalog.CacheTTL(), shared, log)
	deps.checks["catalog"] = func(ctx context.Context) error {
		_, err := deps.cached.Load(ctx)
		return err
	}

	zapLog.Info("catalog source configured",
		zap.String("source", src.Name()),
		zap.Duration("cacheTTL", cfg.Catalog.CacheTTL()),
		zap.Bool("redisCache", shared != nil),
	)
	return deps, nil
}
