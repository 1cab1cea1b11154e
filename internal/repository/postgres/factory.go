package postgres

import (
	repo "github.com/csmith1188/digipogs/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users        repo.Users
	Pools        repo.Pools
	Classes      repo.Classes
	Transactions repo.Transactions
	AuditLogs    repo.AuditLogs
	Ledger       repo.Ledger
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:        &usersRepo{pool},
		Pools:        &poolsRepo{pool},
		Classes:      &classesRepo{pool},
		Transactions: &transactionsRepo{pool},
		AuditLogs:    &auditLogsRepo{pool},
		Ledger:       &ledgerRepo{pool},
	}
}
