package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/csmith1188/digipogs/internal/metrics"
	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/rateguard"
	repo "github.com/csmith1188/digipogs/internal/repository"
	"github.com/csmith1188/digipogs/internal/worker"
)

// PoolService manages shared pools: lifecycle, membership, ownership flags
// and the even-split payout.
type PoolService struct {
	users    repo.Users
	pools    repo.Pools
	trx      repo.Transactions
	ledger   repo.Ledger
	guard    rateguard.Guard
	audit    auditor
	maxOwned int
}

func NewPoolService(users repo.Users, pools repo.Pools, trx repo.Transactions, ledger repo.Ledger, guard rateguard.Guard, logs repo.AuditLogs, wp *worker.Pool, maxOwned int) *PoolService {
	return &PoolService{
		users:    users,
		pools:    pools,
		trx:      trx,
		ledger:   ledger,
		guard:    guard,
		audit:    auditor{logs: logs, wp: wp},
		maxOwned: maxOwned,
	}
}

func (s *PoolService) CreatePool(ctx context.Context, ownerID int64, name, description string) Result {
	if len(name) == 0 || len(name) > 50 {
		return failure("Invalid pool name.")
	}
	if len(description) > 255 {
		return failure("Invalid pool description.")
	}

	key := rateKey(ownerID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}

	owned, err := s.pools.CountOwned(ctx, ownerID)
	if err != nil {
		slog.Error("owned pool count failed", "user", ownerID, "err", err)
		return s.fail(key, "Database error.")
	}
	if owned >= s.maxOwned {
		return s.fail(key, fmt.Sprintf("You can only own up to %d pools.", s.maxOwned))
	}

	p, err := s.pools.CreateWithOwner(ctx, ownerID, name, description)
	if err != nil {
		slog.Error("pool create failed", "user", ownerID, "err", err)
		return s.fail(key, "Database error.")
	}

	s.guard.Record(key, true)
	s.audit.write("pool", p.ID, "created", map[string]any{"owner": ownerID})
	return success("Pool created successfully.")
}

func (s *PoolService) DeletePool(ctx context.Context, poolID, requesterID int64) Result {
	key := rateKey(requesterID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}
	if res := s.requireOwner(ctx, key, poolID, requesterID); res != nil {
		return *res
	}

	if err := s.pools.Delete(ctx, poolID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return s.fail(key, "Pool not found.")
		}
		slog.Error("pool delete failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}

	s.guard.Record(key, true)
	s.audit.write("pool", poolID, "deleted", map[string]any{"by": requesterID})
	return success("Pool deleted successfully.")
}

func (s *PoolService) AddMember(ctx context.Context, poolID, userID, requesterID int64) Result {
	key := rateKey(requesterID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}
	if res := s.requireOwner(ctx, key, poolID, requesterID); res != nil {
		return *res
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return s.fail(key, "User not found.")
		}
		slog.Error("member lookup failed", "user", userID, "err", err)
		return s.fail(key, "Database error.")
	}
	member, err := s.pools.IsMember(ctx, poolID, userID)
	if err != nil {
		slog.Error("membership lookup failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}
	if member {
		return s.fail(key, "User is already a member of this pool.")
	}
	if err := s.pools.AddMember(ctx, poolID, userID, false); err != nil {
		slog.Error("member insert failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}

	s.guard.Record(key, true)
	return success("User added to pool successfully.")
}

func (s *PoolService) RemoveMember(ctx context.Context, poolID, userID, requesterID int64) Result {
	key := rateKey(requesterID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}
	if res := s.requireOwner(ctx, key, poolID, requesterID); res != nil {
		return *res
	}

	if err := s.pools.RemoveMember(ctx, poolID, userID); err != nil {
		if errors.Is(err, models.ErrNotMember) {
			return s.fail(key, "User is not a member of this pool.")
		}
		slog.Error("member delete failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}

	s.guard.Record(key, true)
	return success("User removed from pool successfully.")
}

func (s *PoolService) SetOwnerFlag(ctx context.Context, poolID, userID int64, owner bool, requesterID int64) Result {
	key := rateKey(requesterID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}
	if res := s.requireOwner(ctx, key, poolID, requesterID); res != nil {
		return *res
	}

	if err := s.pools.SetOwnerFlag(ctx, poolID, userID, owner); err != nil {
		if errors.Is(err, models.ErrNotMember) {
			return s.fail(key, "User is not a member of this pool.")
		}
		slog.Error("owner flag update failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}

	s.guard.Record(key, true)
	return success("Owner flag updated.")
}

// Payout splits the pool balance evenly across all members, owners included.
// The floor-division remainder stays in the pool.
func (s *PoolService) Payout(ctx context.Context, poolID, requesterID int64) Result {
	key := rateKey(requesterID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}
	if res := s.requireOwner(ctx, key, poolID, requesterID); res != nil {
		return *res
	}

	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return s.fail(key, "Pool not found.")
		}
		slog.Error("pool lookup failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}
	members, err := s.pools.Members(ctx, poolID)
	if err != nil {
		slog.Error("member list failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}
	if len(members) == 0 {
		return s.fail(key, "Pool has no members.")
	}

	perMember := pool.Amount / int64(len(members))
	if perMember == 0 {
		return s.fail(key, "Pool balance is too low to pay out.")
	}
	distributed := perMember * int64(len(members))

	err = s.ledger.WithTx(ctx, func(tx repo.LedgerTx) error {
		if err := tx.DebitPool(ctx, poolID, distributed); err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.CreditUser(ctx, m.UserID, perMember); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("payout mutation failed", "pool", poolID, "err", err)
		return s.fail(key, "Database error.")
	}

	msg := "Pool payout successful."
	now := time.Now()
	for _, m := range members {
		if err := s.trx.Record(ctx, models.Transaction{
			FromID:   poolID,
			FromType: string(models.AccountPool),
			ToID:     m.UserID,
			ToType:   string(models.AccountUser),
			Amount:   perMember,
			Reason:   fmt.Sprintf("Payout from pool %s", pool.Name),
			Date:     now,
		}); err != nil {
			slog.Error("failed to log payout", "pool", poolID, "to", m.UserID, "err", err)
			msg = "Pool payout successful, but failed to log some transactions."
		}
	}

	s.guard.Record(key, true)
	metrics.PoolPayoutsTotal.Inc()
	s.audit.write("pool", poolID, "payout", map[string]any{
		"per_member": perMember, "members": len(members),
	})
	return success(msg)
}

func (s *PoolService) requireOwner(ctx context.Context, key string, poolID, requesterID int64) *Result {
	owner, err := s.pools.IsOwner(ctx, poolID, requesterID)
	if err != nil {
		slog.Error("ownership lookup failed", "pool", poolID, "err", err)
		r := s.fail(key, "Database error.")
		return &r
	}
	if !owner {
		r := s.fail(key, "You do not own this pool.")
		return &r
	}
	return nil
}

func (s *PoolService) fail(key, msg string) Result {
	s.guard.Record(key, false)
	return failure(msg)
}

func rateKey(userID int64) string { return fmt.Sprintf("pool-%d", userID) }
