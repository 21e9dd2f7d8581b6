// Command identity manages name registrations and wallet mappings:
// the commit-reveal registration flow on the ETH side, and the
// three-key mapping records that tie a name to its SUI wallet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sui-launchpad/internal/config"
	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/identity"
	"sui-launchpad/internal/kv"
	kvpostgres "sui-launchpad/internal/kv/postgres"
)

const usage = `usage: identity <command> [flags]

commands:
  register   run the commit-reveal flow for a name
  save       store a name -> ETH -> SUI wallet mapping
  lookup     look up the mapping for an ETH address
  resolve    resolve a name or address to a SUI address
  verify     verify a connected wallet pair against its mapping
  remove     delete a mapping
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "register":
		err = runRegister(ctx, cfg, logger, args)
	case "save", "lookup", "resolve", "verify", "remove":
		err = runMapping(ctx, cfg, logger, cmd, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func runRegister(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	label := fs.String("label", "", "Name label to register, without the suffix (required)")
	owner := fs.String("owner", "", "ETH address that will own the name (required)")
	duration := fs.Uint64("duration", 31536000, "Registration duration in seconds")
	ethRPC := fs.String("eth-rpc", "", "Ethereum JSON-RPC endpoint (required)")
	fs.Parse(args)

	if *label == "" || *owner == "" || *ethRPC == "" {
		return fmt.Errorf("--label, --owner and --eth-rpc are required")
	}
	if cfg.Identity.ControllerAddress == "" || cfg.Identity.ResolverAddress == "" {
		return fmt.Errorf("IDENTITY_CONTROLLER_ADDRESS and IDENTITY_RESOLVER_ADDRESS are required")
	}
	privateKey := os.Getenv("IDENTITY_PRIVATE_KEY")
	if privateKey == "" {
		return fmt.Errorf("IDENTITY_PRIVATE_KEY is required")
	}

	controller, err := identity.NewEthController(ctx, *ethRPC, cfg.Identity.ControllerAddress, privateKey, logger)
	if err != nil {
		return err
	}

	registrar := identity.NewRegistrar(controller, logger)
	registrar.OnRegistered(func(name string) {
		fmt.Printf("registered %s\n", name)
	})

	commitment, err := registrar.Commit(ctx, *label, *owner, *duration, cfg.Identity.ResolverAddress)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info().
		Str("label", commitment.Label).
		Dur("wait", identity.MinCommitmentAge).
		Msg("commitment submitted, waiting for reveal window")

	// The reveal is rejected until the commitment has aged on-chain.
	timer := time.NewTimer(identity.MinCommitmentAge + 2*time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	name, err := registrar.Register(ctx)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.Info().Str("name", name).Msg("registration complete")
	return nil
}

func runMapping(ctx context.Context, cfg *config.Config, logger zerolog.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	name := fs.String("name", "", "Registered name, with suffix")
	ethAddr := fs.String("eth", "", "ETH address")
	suiAddr := fs.String("sui", "", "SUI address")
	kvBackend := fs.String("kv", "redis", "Mapping storage backend: memory, redis or postgres")
	fs.Parse(args)

	store, err := buildKV(ctx, cfg, *kvBackend)
	if err != nil {
		return fmt.Errorf("set up KV store: %w", err)
	}
	mappings := identity.NewMappingStore(store, logger)

	switch cmd {
	case "save":
		if *name == "" || *ethAddr == "" || *suiAddr == "" {
			return fmt.Errorf("--name, --eth and --sui are required")
		}
		err := mappings.Save(ctx, &domain.WalletMapping{
			ENSName:     *name,
			EthAddress:  *ethAddr,
			SuiAddress:  *suiAddr,
			CreatedAtMs: time.Now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		fmt.Printf("saved %s -> %s -> %s\n", *name, *ethAddr, *suiAddr)

	case "lookup":
		if *ethAddr == "" {
			return fmt.Errorf("--eth is required")
		}
		mapping, err := mappings.Lookup(ctx, *ethAddr)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s -> %s\n", mapping.ENSName, mapping.EthAddress, mapping.SuiAddress)

	case "resolve":
		if *name == "" {
			return fmt.Errorf("--name is required")
		}
		resolved, err := mappings.Resolve(ctx, *name)
		if err != nil {
			return err
		}
		fmt.Println(resolved)

	case "verify":
		verifiedName, ok, err := mappings.VerifyIdentity(ctx, *ethAddr, *suiAddr)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("NOT VERIFIED")
			os.Exit(1)
		}
		fmt.Printf("VERIFIED as %s\n", verifiedName)

	case "remove":
		if *ethAddr == "" {
			return fmt.Errorf("--eth is required")
		}
		if err := mappings.Remove(ctx, *ethAddr); err != nil {
			return err
		}
		fmt.Printf("removed mapping for %s\n", *ethAddr)
	}
	return nil
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
