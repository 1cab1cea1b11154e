package postgres

import (
	"context"
	"errors"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type poolsRepo struct{ pool *pgxpool.Pool }

func (r *poolsRepo) CreateWithOwner(ctx context.Context, ownerID int64, name, description string) (models.Pool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Pool{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p models.Pool
	err = tx.QueryRow(ctx,
		`INSERT INTO digipog_pools(name, description, amount)
		 VALUES($1,$2,0)
		 RETURNING id, name, description, amount`,
		name, description,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Amount)
	if err != nil {
		return models.Pool{}, err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO digipog_pool_users(pool_id, user_id, owner) VALUES($1,$2,TRUE)`,
		p.ID, ownerID)
	if err != nil {
		return models.Pool{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Pool{}, err
	}
	return p, nil
}

func (r *poolsRepo) GetByID(ctx context.Context, id int64) (models.Pool, error) {
	var p models.Pool
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, amount FROM digipog_pools WHERE id=$1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Pool{}, models.ErrNotFound
	}
	return p, err
}

func (r *poolsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM digipog_pools WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *poolsRepo) Members(ctx context.Context, poolID int64) ([]models.PoolMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pool_id, user_id, owner FROM digipog_pool_users WHERE pool_id=$1 ORDER BY user_id`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PoolMember
	for rows.Next() {
		var m models.PoolMember
		if err := rows.Scan(&m.PoolID, &m.UserID, &m.Owner); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *poolsRepo) IsMember(ctx context.Context, poolID, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM digipog_pool_users WHERE pool_id=$1 AND user_id=$2)`,
		poolID, userID).Scan(&exists)
	return exists, err
}

func (r *poolsRepo) IsOwner(ctx context.Context, poolID, userID int64) (bool, error) {
	var owner bool
	err := r.pool.QueryRow(ctx,
		`SELECT owner FROM digipog_pool_users WHERE pool_id=$1 AND user_id=$2`,
		poolID, userID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return owner, err
}

func (r *poolsRepo) CountOwned(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM digipog_pool_users WHERE user_id=$1 AND owner`, userID).Scan(&n)
	return n, err
}

func (r *poolsRepo) AddMember(ctx context.Context, poolID, userID int64, owner bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO digipog_pool_users(pool_id, user_id, owner)
		 VALUES($1,$2,$3)
		 ON CONFLICT (pool_id, user_id) DO UPDATE SET owner = EXCLUDED.owner`,
		poolID, userID, owner)
	return err
}

func (r *poolsRepo) RemoveMember(ctx context.Context, poolID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM digipog_pool_users WHERE pool_id=$1 AND user_id=$2`, poolID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotMember
	}
	return nil
}

func (r *poolsRepo) SetOwnerFlag(ctx context.Context, poolID, userID int64, owner bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE digipog_pool_users SET owner=$3 WHERE pool_id=$1 AND user_id=$2`,
		poolID, userID, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotMember
	}
	return nil
}
