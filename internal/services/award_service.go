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

// AwardTarget names the recipient of a privileged credit. Classes may be
// addressed by id or by join code.
type AwardTarget struct {
	Type models.AccountType
	ID   int64
	Code string
}

// AwardService credits users, pools, or whole classes without a PIN; callers
// must already be authenticated, permission is derived from the sender's
// global level and class membership.
type AwardService struct {
	users   repo.Users
	pools   repo.Pools
	classes repo.Classes
	trx     repo.Transactions
	ledger  repo.Ledger
	guard   rateguard.Guard
	audit   auditor
}

func NewAwardService(users repo.Users, pools repo.Pools, classes repo.Classes, trx repo.Transactions, ledger repo.Ledger, guard rateguard.Guard, logs repo.AuditLogs, wp *worker.Pool) *AwardService {
	return &AwardService{
		users:   users,
		pools:   pools,
		classes: classes,
		trx:     trx,
		ledger:  ledger,
		guard:   guard,
		audit:   auditor{logs: logs, wp: wp},
	}
}

func (s *AwardService) Award(ctx context.Context, fromID int64, target AwardTarget, amount int64, reason string) Result {
	if amount <= 0 {
		return failure("Amount must be greater than zero.")
	}

	key := fmt.Sprintf("award-%d", fromID)
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}

	from, err := s.users.GetByID(ctx, fromID)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(key, "Sender account not found.")
	}
	if err != nil {
		slog.Error("award sender lookup failed", "from", fromID, "err", err)
		return s.fail(key, "Database error.")
	}

	var toID int64
	switch target.Type {
	case models.AccountUser:
		toID, err = s.awardUser(ctx, from, target.ID, amount)
	case models.AccountPool:
		toID, err = s.awardPool(ctx, from, target.ID, amount)
	case models.AwardClass:
		toID, err = s.awardClass(ctx, from, target, amount)
	default:
		return failure("Invalid award target.")
	}
	if err != nil {
		var denied deniedError
		if errors.As(err, &denied) {
			return s.fail(key, denied.msg)
		}
		slog.Error("award failed", "from", fromID, "target", target.Type, "err", err)
		return s.fail(key, "Database error.")
	}

	if reason == "" {
		reason = "Award"
	}
	msg := "Digipogs awarded."
	if err := s.trx.Record(ctx, models.Transaction{
		FromID:   fromID,
		FromType: models.TransferAward,
		ToID:     toID,
		ToType:   string(target.Type),
		Amount:   amount,
		Reason:   reason,
		Date:     time.Now(),
	}); err != nil {
		slog.Error("failed to log award", "from", fromID, "err", err)
		msg = "Digipogs awarded, but failed to log transaction."
	}

	s.guard.Record(key, true)
	metrics.AwardsTotal.WithLabelValues(string(target.Type)).Inc()
	s.audit.write("award", fromID, "award", map[string]any{
		"target": string(target.Type), "to": toID, "amount": amount,
	})
	return success(msg)
}

// deniedError carries a user-safe rejection message out of a dispatch branch.
type deniedError struct{ msg string }

func (e deniedError) Error() string { return e.msg }

func deny(msg string) error { return deniedError{msg: msg} }

func (s *AwardService) awardUser(ctx context.Context, from models.User, userID, amount int64) (int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, deny("Recipient account not found.")
		}
		return 0, err
	}
	if from.Permissions < models.TeacherPermissions {
		teaches, err := s.classes.TeachesUser(ctx, from.ID, userID)
		if err != nil {
			return 0, err
		}
		if !teaches {
			return 0, deny("You do not have permission to award digipogs to this user.")
		}
	}
	err := s.ledger.WithTx(ctx, func(tx repo.LedgerTx) error {
		return tx.CreditUser(ctx, userID, amount)
	})
	return userID, err
}

func (s *AwardService) awardPool(ctx context.Context, from models.User, poolID, amount int64) (int64, error) {
	if from.Permissions < models.TeacherPermissions {
		return 0, deny("You do not have permission to award digipogs to pools.")
	}
	if _, err := s.pools.GetByID(ctx, poolID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, deny("Pool not found.")
		}
		return 0, err
	}
	err := s.ledger.WithTx(ctx, func(tx repo.LedgerTx) error {
		return tx.CreditPool(ctx, poolID, amount)
	})
	return poolID, err
}

// awardClass credits every member plus the owner by the same amount each; a
// class is a distribution target, not a balance holder.
func (s *AwardService) awardClass(ctx context.Context, from models.User, target AwardTarget, amount int64) (int64, error) {
	var class models.Class
	var err error
	if target.Code != "" {
		class, err = s.classes.GetByKey(ctx, target.Code)
	} else {
		class, err = s.classes.GetByID(ctx, target.ID)
	}
	if errors.Is(err, models.ErrNotFound) {
		return 0, deny("Class not found.")
	}
	if err != nil {
		return 0, err
	}

	if class.OwnerID != from.ID && from.Permissions < models.TeacherPermissions {
		role, err := s.classes.RoleOf(ctx, class.ID, from.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return 0, err
		}
		if errors.Is(err, models.ErrNotFound) || role < models.TeacherPermissions {
			return 0, deny("You do not have permission to award digipogs to this class.")
		}
	}

	members, err := s.classes.Members(ctx, class.ID)
	if err != nil {
		return 0, err
	}
	recipients := members
	ownerEnrolled := false
	for _, id := range members {
		if id == class.OwnerID {
			ownerEnrolled = true
			break
		}
	}
	if !ownerEnrolled {
		recipients = append(recipients, class.OwnerID)
	}

	err = s.ledger.WithTx(ctx, func(tx repo.LedgerTx) error {
		for _, id := range recipients {
			if err := tx.CreditUser(ctx, id, amount); err != nil {
				return err
			}
		}
		return nil
	})
	return class.ID, err
}

func (s *AwardService) fail(key, msg string) Result {
	s.guard.Record(key, false)
	return failure(msg)
}
