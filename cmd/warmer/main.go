// Command warmer pre-fetches room types, boards and hotel directories for
// every configured tenant into the shared Redis snapshot store.
package main

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_sync/internal/adapters/observability"
	redisad "hotel_sync/internal/adapters/redis"
	"hotel_sync/internal/adapters/sedna"
	"hotel_sync/internal/adapters/tenants"
	"hotel_sync/internal/app"
	"hotel_sync/internal/hotels"
	"hotel_sync/internal/refdata"
	"hotel_sync/internal/shared"
	"hotel_sync/internal/storage/memory"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required: warmed snapshots live in Redis")
	}
	tenantReg, err := tenants.Load(cfg.TenantsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TenantsFile).Msg("tenants file")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	defer cache.Close()

	log.Info().
		Int("tenants", len(tenantReg.IDs())).
		Int("workers", cfg.WarmerConcurrency).
		Dur("ttl", cfg.RefDataTTL).
		Msg("warmer starting")

	// 2) wire the same caches the API uses; mappings are not touched here
	partner := sedna.New(cfg.SednaRPS, cfg.SednaTimeout)
	refs := refdata.New(partner, cfg.RefDataTTL, log.Logger, refdata.WithShared(cache))
	resolver := hotels.NewResolver(partner, memory.New(), cache, cfg.RefDataTTL, log.Logger)
	warm := app.NewWarmService(tenantReg, refs, resolver)

	sem := semaphore.NewWeighted(int64(max(cfg.WarmerConcurrency, 1)))
	var wg sync.WaitGroup
	var failed atomic.Int32
	start := time.Now()

	for _, id := range tenantReg.IDs() {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(tenantID int64) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := warm.WarmTenant(ctx, tenantID)
			if err != nil {
				failed.Add(1)
				log.Warn().Int64("tenant", tenantID).Err(err).Msg("warm failed")
				return
			}
			log.Info().Int64("tenant", tenantID).Int("hotels", n).Msg("warm ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int32("failed", failed.Load()).Dur("took", time.Since(start)).Msg("warming completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
