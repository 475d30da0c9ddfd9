package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradeScope/internal/model"
)

// Store provides Postgres persistence for the operation audit journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutAuditBatch inserts audit records.
func (s *Store) PutAuditBatch(ctx context.Context, records []model.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO operation_audit (
				ts, chain_id, operation, token_in, token_out, wallet,
				amount_in, amount_out, fee_tier, gas, error_kind
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			record.Timestamp,
			int64(record.ChainID),
			record.Operation,
			record.TokenIn,
			record.TokenOut,
			record.Wallet,
			record.AmountIn,
			record.AmountOut,
			int64(record.FeeTier),
			int64(record.Gas),
			record.ErrorKind,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
