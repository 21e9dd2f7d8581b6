package clickhouse

import (
	"context"
	"fmt"
)

// schemaStatements create the history tables. MergeTree does not
// enforce uniqueness; the stores check for duplicates before insert.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		token_id     String,
		actor        String,
		side         String,
		amount       Float64,
		price        Float64,
		cost         Float64,
		timestamp_ms UInt64,
		tx_digest    String,
		event_index  UInt32,
		phase        String
	) ENGINE = MergeTree()
	ORDER BY (token_id, timestamp_ms, tx_digest, event_index)`,

	`CREATE TABLE IF NOT EXISTS candles (
		token_id          String,
		interval_start_ms UInt64,
		interval_seconds  UInt32,
		open              Float64,
		high              Float64,
		low               Float64,
		close             Float64,
		volume            Float64,
		trade_count       UInt32,
		has_sell          Bool,
		display_high      Float64,
		display_low       Float64
	) ENGINE = MergeTree()
	ORDER BY (token_id, interval_seconds, interval_start_ms)`,
}

// EnsureSchema creates the history tables if they do not exist.
func EnsureSchema(ctx context.Context, conn *Conn) error {
	for _, stmt := range schemaStatements {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply history schema: %w", err)
		}
	}
	return nil
}
