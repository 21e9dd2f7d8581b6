// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig
	Sui      SuiConfig
	Oracle   OracleConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	History  HistoryConfig
	Identity IdentityConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

type SuiConfig struct {
	RPCURL    string
	WSURL     string
	PackageID string // launchpad Move package
}

type OracleConfig struct {
	PriceURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	DSN string
}

type HistoryConfig struct {
	ClickhouseDSN string
}

type IdentityConfig struct {
	ControllerAddress string
	ResolverAddress   string
}

type MetricsConfig struct {
	Addr string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; missing files are not
// an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Sui: SuiConfig{
			RPCURL:    getEnv("SUI_RPC_URL", "https://fullnode.testnet.sui.io:443"),
			WSURL:     getEnv("SUI_WS_URL", "wss://fullnode.testnet.sui.io:443"),
			PackageID: getEnv("SUI_PACKAGE_ID", ""),
		},
		Oracle: OracleConfig{
			PriceURL: getEnv("ORACLE_PRICE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("POSTGRES_DSN", ""),
		},
		History: HistoryConfig{
			ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		},
		Identity: IdentityConfig{
			ControllerAddress: getEnv("IDENTITY_CONTROLLER_ADDRESS", ""),
			ResolverAddress:   getEnv("IDENTITY_RESOLVER_ADDRESS", ""),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
