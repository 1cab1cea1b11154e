package postgres

import (
	"context"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

func (r *transactionsRepo) Record(ctx context.Context, tx models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions(id, from_id, from_type, to_id, to_type, amount, reason, date)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		tx.ID, tx.FromID, tx.FromType, tx.ToID, tx.ToType, tx.Amount, tx.Reason, tx.Date)
	return err
}

func (r *transactionsRepo) ListForUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.from_id, t.from_type, t.to_id, t.to_type, t.amount, t.reason, t.date
		   FROM transactions t
		  WHERE (t.from_id = $1 AND t.from_type = 'user')
		     OR (t.to_id = $1 AND t.to_type = 'user')
		     OR (t.from_type = 'pool' AND t.from_id IN (SELECT pool_id FROM digipog_pool_users WHERE user_id = $1))
		     OR (t.to_type = 'pool' AND t.to_id IN (SELECT pool_id FROM digipog_pool_users WHERE user_id = $1))
		  ORDER BY t.date DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.FromID, &tx.FromType, &tx.ToID, &tx.ToType, &tx.Amount, &tx.Reason, &tx.Date); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
