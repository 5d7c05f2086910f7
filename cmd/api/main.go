package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_sync/internal/adapters/http_server"
	"hotel_sync/internal/adapters/observability"
	"hotel_sync/internal/adapters/parsersvc"
	redisad "hotel_sync/internal/adapters/redis"
	"hotel_sync/internal/adapters/sedna"
	"hotel_sync/internal/adapters/tenants"
	"hotel_sync/internal/app"
	"hotel_sync/internal/domain"
	"hotel_sync/internal/hotels"
	"hotel_sync/internal/refdata"
	"hotel_sync/internal/shared"
	"hotel_sync/internal/storage/memory"
	mysqlrepo "hotel_sync/internal/storage/mysql"
)

type storage struct {
	ledger   domain.Ledger
	records  domain.RecordStore
	mappings domain.MappingStore
	parser   domain.Parser
	close    func()
}

func openStorage(cfg shared.Config) storage {
	if cfg.Storage == "memory" {
		st := memory.New()
		log.Warn().Msg("in-memory storage: runs and mappings are lost on restart")
		return storage{ledger: st, records: st, mappings: st, parser: st, close: func() {}}
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)
	return storage{
		ledger:   repo,
		records:  repo,
		mappings: repo,
		parser:   parsersvc.New(cfg.ParserURL, 0),
		close:    func() { _ = db.Close() },
	}
}

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	tenantReg, err := tenants.Load(cfg.TenantsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TenantsFile).Msg("tenants file")
	}

	st := openStorage(cfg)
	defer st.close()

	// shared snapshots and result cache are optional
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		defer rc.Close()
		cache = rc
	}

	// deps
	partner := sedna.New(cfg.SednaRPS, cfg.SednaTimeout)
	refs := refdata.New(partner, cfg.RefDataTTL, log.Logger, refdata.WithShared(cache))
	resolver := hotels.NewResolver(partner, st.mappings, cache, cfg.RefDataTTL, log.Logger)
	writer := app.NewPartnerWriter(st.records, partner, resolver, refs, log.Logger)
	sup := app.NewSupervisor(cfg.MaxConcurrentRuns, log.Logger)
	syncSvc := app.NewSyncService(st.ledger, st.records, st.parser, tenantReg, writer, app.NewProgressHub(), sup,
		app.SyncOptions{ItemDelay: cfg.ItemDelay, Heartbeat: cfg.Heartbeat, QueueWait: cfg.QueueWait}, log.Logger)
	q := app.NewQueryService(st.ledger, cache, cfg.ResultCacheTTL)

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Sync:    syncSvc,
		Queries: q,
		Hotels:  resolver,
		Refs:    refs,
		Creds:   tenantReg,
		Keys:    tenantReg,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Dur("grace", cfg.ShutdownGrace).Msg("shutting down")

	// Runs drain first so their progress streams can finish; new runs get 503.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := sup.Shutdown(drainCtx); err != nil {
		log.Warn().Err(err).Msg("runs did not drain in time")
	}
	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelHTTP()
	if err := httpSrv.Shutdown(httpCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("bye")
}
