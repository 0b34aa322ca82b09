package store

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema documents the table PostgresStore queries against.
// No migration runner is wired (spec.md's Non-goals exclude persisting
// state across restarts); this exists so the table shape lives next to
// the queries that assume it, matching the single polymorphic
// ens_records table the Rust source generated via Diesel.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS ens_records (
	id                        SERIAL PRIMARY KEY,
	domain                    TEXT NOT NULL,
	record_type               TEXT NOT NULL, -- 'address' | 'text' | 'contenthash'
	address_record_coin_type  BIGINT,
	address_record_value      TEXT,
	text_record_key           TEXT,
	text_record_value         TEXT,
	content_hash_record       TEXT
);
CREATE INDEX IF NOT EXISTS ens_records_domain_idx ON ens_records (domain, record_type);
`

// PostgresStore serves ENS records from a Postgres-backed ens_records
// table, one row per record.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and verifies the server is
// reachable with a ping; the ens_records table is not checked. Callers
// own the returned pool's lifetime via Close.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Addr(ctx context.Context, name string) (common.Address, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT address_record_value FROM ens_records
		 WHERE domain = $1 AND record_type = 'address' AND address_record_coin_type = 60
		 LIMIT 1`, name,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, fmt.Errorf("store: querying addr for %q: %w", name, err)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, false, fmt.Errorf("store: %q: malformed address %q", name, value)
	}
	return common.HexToAddress(value), true, nil
}

func (s *PostgresStore) AddrCoinType(ctx context.Context, name string, coinType *big.Int) ([]byte, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT address_record_value FROM ens_records
		 WHERE domain = $1 AND record_type = 'address' AND address_record_coin_type = $2
		 LIMIT 1`, name, coinType.Int64(),
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: querying addr(coinType=%s) for %q: %w", coinType, name, err)
	}
	decoded, decErr := decodeHexValue(value)
	if decErr != nil {
		return nil, false, fmt.Errorf("store: %q: malformed address bytes for coin type %s: %w", name, coinType, decErr)
	}
	return decoded, true, nil
}

func (s *PostgresStore) Text(ctx context.Context, name, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT text_record_value FROM ens_records
		 WHERE domain = $1 AND record_type = 'text' AND text_record_key = $2
		 LIMIT 1`, name, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: querying text(%s) for %q: %w", key, name, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Contenthash(ctx context.Context, name string) ([]byte, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT content_hash_record FROM ens_records
		 WHERE domain = $1 AND record_type = 'contenthash'
		 LIMIT 1`, name,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: querying contenthash for %q: %w", name, err)
	}
	decoded, decErr := decodeHexValue(value)
	if decErr != nil {
		return nil, false, fmt.Errorf("store: %q: malformed contenthash hex: %w", name, decErr)
	}
	return decoded, true, nil
}
