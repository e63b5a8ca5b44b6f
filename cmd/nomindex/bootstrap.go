package main

import (
	"context"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lonvia/Nominatim/internal/config"
	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/metrics"
)

// runtime bundles everything a subcommand needs: the loaded config, a
// structured logger, a connection pool, and an instrumentation registry.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func newRuntime(ctx context.Context) (*runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, ierrors.NewConfig(err, "load configuration")
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if cfg.DatabaseDSN == "" {
		return nil, nil, ierrors.NewConfig(errMissingDSN, "NOMINATIM_DATABASE_DSN is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, ierrors.NewConfig(err, "parse database DSN")
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "nomindex"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, ierrors.NewConnectivity(err, "connect to database")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cleanup := func() { pool.Close() }

	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Msg("metrics server exited")
			}
		}()
		prevCleanup := cleanup
		cleanup = func() {
			_ = srv.Close()
			prevCleanup()
		}
	}

	return &runtime{cfg: cfg, log: log, pool: pool, metrics: m}, cleanup, nil
}

var errMissingDSN = dsnError("missing database DSN")

type dsnError string

func (e dsnError) Error() string { return string(e) }
