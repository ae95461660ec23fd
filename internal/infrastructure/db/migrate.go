package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the trade ledger table. This keeps setup simple (no
// external migration tool) while still giving durable persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		// order_id is text on purpose: Binance ids can exceed the 53-bit
		// integer range that survives a round trip through JSON/floats.
		`create table if not exists trades (
			id bigserial primary key,
			symbol text not null,
			order_id text not null,
			side text not null,
			price double precision not null,
			amount double precision not null,
			strategy text not null,
			status text not null,
			timestamp timestamptz not null default now()
		);`,
		`create index if not exists trades_symbol_status_idx on trades(symbol, status);`,
		`create index if not exists trades_timestamp_idx on trades(timestamp desc);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
