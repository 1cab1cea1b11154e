package postgres

import (
	"context"
	"errors"

	"github.com/csmith1188/digipogs/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type classesRepo struct{ pool *pgxpool.Pool }

func scanClass(row pgx.Row) (models.Class, error) {
	var c models.Class
	err := row.Scan(&c.ID, &c.Name, &c.Key, &c.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Class{}, models.ErrNotFound
	}
	return c, err
}

func (r *classesRepo) GetByID(ctx context.Context, id int64) (models.Class, error) {
	return scanClass(r.pool.QueryRow(ctx,
		`SELECT id, name, key, owner_id FROM classes WHERE id=$1`, id))
}

func (r *classesRepo) GetByKey(ctx context.Context, key string) (models.Class, error) {
	return scanClass(r.pool.QueryRow(ctx,
		`SELECT id, name, key, owner_id FROM classes WHERE key=$1`, key))
}

func (r *classesRepo) RoleOf(ctx context.Context, classID, userID int64) (int, error) {
	var perm int
	err := r.pool.QueryRow(ctx,
		`SELECT permissions FROM class_users WHERE class_id=$1 AND user_id=$2`,
		classID, userID).Scan(&perm)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	return perm, err
}

func (r *classesRepo) Members(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM class_users WHERE class_id=$1 ORDER BY user_id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *classesRepo) TeachesUser(ctx context.Context, teacherID, studentID int64) (bool, error) {
	var teaches bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
		    SELECT 1 FROM classes c
		    JOIN class_users s ON s.class_id = c.id AND s.user_id = $2
		    LEFT JOIN class_users t ON t.class_id = c.id AND t.user_id = $1
		    WHERE c.owner_id = $1 OR t.permissions >= $3
		 )`,
		teacherID, studentID, models.TeacherPermissions).Scan(&teaches)
	return teaches, err
}
