// Command portfolio prints an actor's holdings across launchpad
// tokens, priced from freshly replayed charts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sui-launchpad/internal/config"
	"sui-launchpad/internal/history"
	chhistory "sui-launchpad/internal/history/clickhouse"
	"sui-launchpad/internal/kv"
	kvpostgres "sui-launchpad/internal/kv/postgres"
	"sui-launchpad/internal/launchpad"
	"sui-launchpad/internal/oracle"
	"sui-launchpad/internal/scheduler"
	"sui-launchpad/internal/sui"
)

func main() {
	actor := flag.String("actor", "", "Wallet address to report on (required)")
	tokenList := flag.String("tokens", "", "Comma-separated token object IDs to price (required)")
	kvBackend := flag.String("kv", "memory", "KV backend: memory, redis or postgres")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	follow := flag.Bool("follow", false, "Keep refreshing on the portfolio cadence instead of exiting")
	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg)

	if *actor == "" || !sui.IsValidAddress(*actor) {
		logger.Fatal().Str("actor", *actor).Msg("--actor must be a valid address")
	}
	tokenIDs := splitTokens(*tokenList)
	if len(tokenIDs) == 0 {
		logger.Fatal().Msg("--tokens is required")
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

	for _, id := range tokenIDs {
		token, err := svc.FetchToken(ctx, id)
		if err != nil {
			logger.Fatal().Err(err).Str("token", id).Msg("failed to load token")
		}
		if err := svc.RegisterToken(ctx, token); err != nil {
			logger.Fatal().Err(err).Str("token", id).Msg("failed to register token")
		}
		if err := svc.RefreshChart(ctx, id); err != nil {
			logger.Fatal().Err(err).Str("token", id).Msg("failed to refresh chart")
		}
	}
	if err := svc.RefreshPortfolio(ctx, *actor); err != nil {
		logger.Fatal().Err(err).Msg("failed to refresh portfolio")
	}

	printPortfolio(svc, *actor, *outputJSON)

	if !*follow {
		return
	}
	for _, id := range tokenIDs {
		cancel := svc.StartChartPolling(id)
		defer cancel()
	}
	cancel := svc.StartPortfolioPolling(*actor)
	defer cancel()

	t := time.NewTicker(launchpad.PortfolioRefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			printPortfolio(svc, *actor, *outputJSON)
		}
	}
}

func printPortfolio(svc *launchpad.Service, actor string, asJSON bool) {
	summary, ok := svc.Portfolio(actor)
	if !ok {
		fmt.Println("no portfolio data")
		return
	}

	if asJSON {
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tSYMBOL\tBALANCE\tINVESTED\tVALUE\tP/L\tP/L %")
	for _, h := range summary.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.4f\t%+.4f\t%+.2f%%\n",
			h.TokenID, h.Symbol, h.Balance, h.TotalInvested, h.CurrentValue, h.ProfitLoss, h.ProfitLossPercent)
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%.4f\t%.4f\t%+.4f\t%+.2f%%\n",
		summary.TotalInvested, summary.TotalValue, summary.TotalProfitLoss, summary.ProfitLossPercent)
	w.Flush()
}

func splitTokens(list string) []string {
	var out []string
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
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
