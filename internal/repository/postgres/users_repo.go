package postgres

import (
	"context"
	"errors"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usersRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, username, email, password_hash, pin_hash, permissions, digipogs, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PinHash, &u.Permissions, &u.Digipogs, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

func (r *usersRepo) Create(ctx context.Context, username, email, passwordHash string, permissions int) (models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users(username, email, password_hash, permissions)
		 VALUES($1,$2,$3,$4)
		 RETURNING `+userColumns,
		username, email, passwordHash, permissions,
	))
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *usersRepo) SetPin(ctx context.Context, id int64, pinHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET pin_hash=$2, updated_at=now() WHERE id=$1`, id, pinHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
