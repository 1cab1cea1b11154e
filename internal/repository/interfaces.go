package repository

import (
	"context"

	"github.com/csmith1188/digipogs/internal/models"
)

type Users interface {
	Create(ctx context.Context, username, email, passwordHash string, permissions int) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	SetPin(ctx context.Context, id int64, pinHash string) error
}

type Pools interface {
	// CreateWithOwner inserts the pool and its owning membership row in one
	// transaction; a failure cannot strand a pool nobody owns.
	CreateWithOwner(ctx context.Context, ownerID int64, name, description string) (models.Pool, error)
	GetByID(ctx context.Context, id int64) (models.Pool, error)
	Delete(ctx context.Context, id int64) error

	Members(ctx context.Context, poolID int64) ([]models.PoolMember, error)
	IsMember(ctx context.Context, poolID, userID int64) (bool, error)
	IsOwner(ctx context.Context, poolID, userID int64) (bool, error)
	CountOwned(ctx context.Context, userID int64) (int, error)
	AddMember(ctx context.Context, poolID, userID int64, owner bool) error
	RemoveMember(ctx context.Context, poolID, userID int64) error
	SetOwnerFlag(ctx context.Context, poolID, userID int64, owner bool) error
}

// Classes is a read-only collaborator; the ledger never writes class state.
type Classes interface {
	GetByID(ctx context.Context, id int64) (models.Class, error)
	GetByKey(ctx context.Context, key string) (models.Class, error)
	// RoleOf returns the class-level permission of a member, or ErrNotFound.
	RoleOf(ctx context.Context, classID, userID int64) (int, error)
	// Members returns enrolled user ids; the class owner is not included
	// unless also enrolled.
	Members(ctx context.Context, classID int64) ([]int64, error)
	// TeachesUser reports whether teacherID owns, or holds a teacher-level
	// role in, at least one class studentID belongs to.
	TeachesUser(ctx context.Context, teacherID, studentID int64) (bool, error)
}

// Transactions is the append-only ledger log. Record runs after the balance
// mutation has committed; a failure here is reported, never rolled back into.
type Transactions interface {
	Record(ctx context.Context, tx models.Transaction) error
	// ListForUser returns transactions touching the user directly or any
	// pool the user belongs to, newest first.
	ListForUser(ctx context.Context, userID int64) ([]models.Transaction, error)
}

type AuditLogs interface {
	Create(l models.AuditLog) error
}

// Ledger scopes multi-step balance mutations to a single database
// transaction. On error the whole scope rolls back.
type Ledger interface {
	WithTx(ctx context.Context, fn func(LedgerTx) error) error
}

// LedgerTx applies balance deltas inside one transaction. DebitUser and
// DebitPool re-validate sufficient funds at write time so two interleaved
// spends cannot both succeed.
type LedgerTx interface {
	CreditUser(ctx context.Context, id, amount int64) error
	DebitUser(ctx context.Context, id, amount int64) error
	CreditPool(ctx context.Context, id, amount int64) error
	DebitPool(ctx context.Context, id, amount int64) error
}
