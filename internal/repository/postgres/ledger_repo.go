package postgres

import (
	"context"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ledgerRepo struct{ pool *pgxpool.Pool }

func (r *ledgerRepo) WithTx(ctx context.Context, fn func(repository.LedgerTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(&ledgerTx{tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type ledgerTx struct{ tx pgx.Tx }

func (l *ledgerTx) CreditUser(ctx context.Context, id, amount int64) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE users SET digipogs = digipogs + $2, updated_at = now() WHERE id = $1`,
		id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DebitUser re-checks funds at write time. Two interleaved transfers that
// both passed the service-level funds check cannot both commit.
func (l *ledgerTx) DebitUser(ctx context.Context, id, amount int64) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE users SET digipogs = digipogs - $2, updated_at = now()
		  WHERE id = $1 AND digipogs >= $2`,
		id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientFunds
	}
	return nil
}

func (l *ledgerTx) CreditPool(ctx context.Context, id, amount int64) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE digipog_pools SET amount = amount + $2 WHERE id = $1`,
		id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (l *ledgerTx) DebitPool(ctx context.Context, id, amount int64) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE digipog_pools SET amount = amount - $2 WHERE id = $1 AND amount >= $2`,
		id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientFunds
	}
	return nil
}
