package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"autotrader-backend/internal/domain"
)

// PostgresTradeRepository is the durable trade ledger. order_id is stored
// as text: Binance order ids overflow a 53-bit-safe integer.
type PostgresTradeRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTradeRepository(pool *pgxpool.Pool) *PostgresTradeRepository {
	return &PostgresTradeRepository{pool: pool}
}

func (r *PostgresTradeRepository) CreateOpenTrade(trade *domain.Trade) error {
	if trade == nil {
		return errors.New("nil trade")
	}

	trade.Status = domain.StatusOpen
	return r.pool.QueryRow(context.Background(), `
		insert into trades(symbol, order_id, side, price, amount, strategy, status)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning id, timestamp
	`,
		trade.Symbol,
		trade.OrderID,
		trade.Side,
		trade.Price,
		trade.Amount,
		trade.Strategy,
		trade.Status,
	).Scan(&trade.ID, &trade.Timestamp)
}

func (r *PostgresTradeRepository) GetOpenTrades(symbol string) ([]*domain.Trade, error) {
	rows, err := r.pool.Query(context.Background(), `
		select id, symbol, order_id, side, price, amount, strategy, status, timestamp
		from trades
		where symbol = $1 and status = $2
		order by timestamp asc, id asc
	`, symbol, domain.StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.OrderID, &t.Side, &t.Price, &t.Amount, &t.Strategy, &t.Status, &t.Timestamp); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

func (r *PostgresTradeRepository) HasOpenTrades(symbol string) (bool, error) {
	var count int
	err := r.pool.QueryRow(context.Background(), `
		select count(*) from trades where symbol = $1 and status = $2
	`, symbol, domain.StatusOpen).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresTradeRepository) CloseOpenTrades(symbol string) error {
	_, err := r.pool.Exec(context.Background(), `
		update trades set status = $3 where symbol = $1 and status = $2
	`, symbol, domain.StatusOpen, domain.StatusClosed)
	return err
}

func (r *PostgresTradeRepository) GetRecentTrades(limit int) ([]*domain.Trade, error) {
	rows, err := r.pool.Query(context.Background(), `
		select id, symbol, order_id, side, price, amount, strategy, status, timestamp
		from trades
		order by timestamp desc, id desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0, limit)
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.OrderID, &t.Side, &t.Price, &t.Amount, &t.Strategy, &t.Status, &t.Timestamp); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
