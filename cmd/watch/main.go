// Command watch monitors one launchpad token: it polls the event log
// into a live chart view, tails the event stream over websocket, and
// serves Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sui-launchpad/internal/config"
	"sui-launchpad/internal/history"
	chhistory "sui-launchpad/internal/history/clickhouse"
	"sui-launchpad/internal/kv"
	kvpostgres "sui-launchpad/internal/kv/postgres"
	"sui-launchpad/internal/launchpad"
	"sui-launchpad/internal/observability"
	"sui-launchpad/internal/oracle"
	"sui-launchpad/internal/scheduler"
	"sui-launchpad/internal/sui"
)

func main() {
	tokenID := flag.String("token", "", "Token object ID to watch (required)")
	kvBackend := flag.String("kv", "memory", "KV backend: memory, redis or postgres")
	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg)

	if *tokenID == "" {
		logger.Fatal().Msg("--token is required")
	}
	if !sui.IsValidAddress(*tokenID) {
		logger.Fatal().Str("token", *tokenID).Msg("invalid token object ID")
	}
	if cfg.Sui.PackageID == "" {
		logger.Fatal().Msg("SUI_PACKAGE_ID is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := sui.NewHTTPClient(cfg.Sui.RPCURL)

	store, err := buildKV(ctx, cfg, *kvBackend)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up KV store")
	}

	trades, candles, closeHistory, err := buildHistory(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up history stores")
	}
	defer closeHistory()

	var rates launchpad.RateSource
	if cfg.Oracle.PriceURL != "" {
		rates = oracle.New(oracle.NewHTTPSource(cfg.Oracle.PriceURL), store, logger)
	}

	sched := scheduler.New(ctx)
	defer sched.Close()

	svc, err := launchpad.New(launchpad.Options{
		Client:    client,
		Submitter: launchpad.ReadOnlySubmitter{},
		Trades:    trades,
		Candles:   candles,
		KV:        store,
		Oracle:    rates,
		Scheduler: sched,
		PackageID: cfg.Sui.PackageID,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build launchpad service")
	}

	token, err := svc.FetchToken(ctx, *tokenID)
	if err != nil {
		logger.Fatal().Err(err).Str("token", *tokenID).Msg("failed to load token")
	}
	if err := svc.RegisterToken(ctx, token); err != nil {
		logger.Fatal().Err(err).Msg("failed to register token")
	}
	logger.Info().
		Str("token_id", token.ID).
		Str("symbol", token.Symbol).
		Float64("total_supply", token.TotalSupply).
		Msg("watching token")

	cancelPolling := svc.StartChartPolling(token.ID)
	defer cancelPolling()

	go observability.TrackUptime(ctx)
	go serveMetrics(cfg.Metrics.Addr, logger)
	go tailEvents(ctx, cfg, svc, token.ID, logger)
	go printStats(ctx, svc, token.ID, logger)

	<-ctx.Done()
	logger.Info().Msg("shutting down")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func buildKV(ctx context.Context, cfg *config.Config, backend string) (kv.Store, error) {
	switch backend {
	case "memory":
		return kv.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return kv.NewRedisStore(ctx, client)
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires POSTGRES_DSN")
		}
		pool, err := kvpostgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		store := kvpostgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", backend)
	}
}

func buildHistory(ctx context.Context, cfg *config.Config) (history.TradeStore, history.CandleStore, func(), error) {
	if cfg.History.ClickhouseDSN == "" {
		return history.NewMemoryTradeStore(), history.NewMemoryCandleStore(), func() {}, nil
	}
	conn, err := chhistory.NewConn(ctx, cfg.History.ClickhouseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := chhistory.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	closer := func() { _ = conn.Close() }
	return chhistory.NewTradeStore(conn), chhistory.NewCandleStore(conn), closer, nil
}

// tailEvents follows the live stream and logs each trade as it lands.
// The polling loop remains the source of truth for chart state; the
// stream only makes the log timely.
func tailEvents(ctx context.Context, cfg *config.Config, svc *launchpad.Service, tokenID string, logger zerolog.Logger) {
	ws, err := sui.NewWSClient(ctx, cfg.Sui.WSURL, nil, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket unavailable, relying on polling only")
		return
	}
	defer ws.Close()

	buyCh, err := ws.SubscribeEvents(ctx, cfg.Sui.PackageID+"::launchpad::BuyEvent")
	if err != nil {
		logger.Warn().Err(err).Msg("buy event subscription failed")
		return
	}
	sellCh, err := ws.SubscribeEvents(ctx, cfg.Sui.PackageID+"::launchpad::SellEvent")
	if err != nil {
		logger.Warn().Err(err).Msg("sell event subscription failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-buyCh:
			logger.Info().Str("tx_digest", env.TxDigest).Msg("live buy")
			refresh(ctx, svc, tokenID, logger)
		case env := <-sellCh:
			logger.Info().Str("tx_digest", env.TxDigest).Msg("live sell")
			refresh(ctx, svc, tokenID, logger)
		}
	}
}

// refresh pulls the chart forward ahead of the next poll tick. A
// concurrent poll is safe: the newest refresh wins, older results are
// discarded.
func refresh(ctx context.Context, svc *launchpad.Service, tokenID string, logger zerolog.Logger) {
	if err := svc.RefreshChart(ctx, tokenID); err != nil {
		logger.Warn().Err(err).Msg("event-triggered refresh failed")
	}
}

// printStats periodically prints a market summary to stdout.
func printStats(ctx context.Context, svc *launchpad.Service, tokenID string, logger zerolog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := svc.Stats(ctx, tokenID)
			if err != nil {
				logger.Warn().Err(err).Msg("stats unavailable")
				continue
			}
			change := "n/a"
			if stats.PriceChange24h != nil {
				change = fmt.Sprintf("%+.2f%%", *stats.PriceChange24h)
			}
			fmt.Printf("price=%.8f mcap=%.2f vol24h=%.2f holders=%d trades=%d change24h=%s\n",
				stats.CurrentPrice, stats.MarketCap, stats.Volume24h, stats.HolderCount, stats.TradeCount, change)
		}
	}
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
