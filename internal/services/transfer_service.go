package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/csmith1188/digipogs/internal/auth"
	"github.com/csmith1188/digipogs/internal/metrics"
	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/rateguard"
	repo "github.com/csmith1188/digipogs/internal/repository"
	"github.com/csmith1188/digipogs/internal/worker"
)

// TransferRequest moves digipogs between two accounts. Legacy marks the
// deprecated bare-id input shape so the success message can flag it.
type TransferRequest struct {
	From   models.AccountRef
	To     models.AccountRef
	Amount int64
	Pin    string
	Reason string
	Legacy bool
}

type TransferService struct {
	users  repo.Users
	pools  repo.Pools
	trx    repo.Transactions
	ledger repo.Ledger
	guard  rateguard.Guard
	audit  auditor
}

func NewTransferService(users repo.Users, pools repo.Pools, trx repo.Transactions, ledger repo.Ledger, guard rateguard.Guard, logs repo.AuditLogs, wp *worker.Pool) *TransferService {
	return &TransferService{
		users:  users,
		pools:  pools,
		trx:    trx,
		ledger: ledger,
		guard:  guard,
		audit:  auditor{logs: logs, wp: wp},
	}
}

// Tax skims a flat 10% of every peer transfer into the dev pool. The floor
// plus the 1-digipog minimum keeps tiny transfers from crediting zero.
func taxedAmount(amount int64) int64 {
	taxed := amount * 9 / 10
	if taxed < 1 {
		taxed = 1
	}
	return taxed
}

func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) Result {
	// Structural validation rejects before any account is touched and does
	// not count against the rate guard.
	if !req.From.Valid() || !req.To.Valid() {
		return failure("Missing or invalid account.")
	}
	if req.Amount <= 0 {
		return failure("Amount must be greater than zero.")
	}
	if req.From == req.To {
		return failure("Cannot transfer to the same account.")
	}
	if req.Pin == "" {
		return failure("Missing required fields.")
	}

	key := req.From.RateKey()
	if rl := s.guard.Check(key); !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return limited(rl)
	}

	balance, res := s.authenticateSender(ctx, key, req)
	if res != nil {
		return *res
	}
	if balance < req.Amount {
		return s.fail(key, "Insufficient funds.")
	}
	if res := s.checkRecipient(ctx, key, req.To); res != nil {
		return *res
	}

	taxed := taxedAmount(req.Amount)
	tax := req.Amount - taxed

	err := s.ledger.WithTx(ctx, func(tx repo.LedgerTx) error {
		if err := debit(ctx, tx, req.From, req.Amount); err != nil {
			return err
		}
		if err := credit(ctx, tx, req.To, taxed); err != nil {
			return err
		}
		if tax > 0 {
			return tx.CreditPool(ctx, models.DevPoolID, tax)
		}
		return nil
	})
	if errors.Is(err, models.ErrInsufficientFunds) {
		return s.fail(key, "Insufficient funds.")
	}
	if err != nil {
		slog.Error("transfer mutation failed", "from", key, "err", err)
		return s.fail(key, "Database error.")
	}

	reason := req.Reason
	if reason == "" {
		reason = "Transfer"
	}
	msg := "Transfer successful."
	if req.Legacy {
		msg = "Transfer successful. Note: the bare-id request format is deprecated."
	}
	if err := s.trx.Record(ctx, models.Transaction{
		FromID:   req.From.ID,
		FromType: string(req.From.Type),
		ToID:     req.To.ID,
		ToType:   string(req.To.Type),
		Amount:   req.Amount,
		Reason:   reason,
		Date:     time.Now(),
	}); err != nil {
		// Funds already moved; never roll back for a log write.
		slog.Error("failed to log transaction", "from", key, "err", err)
		msg = "Transfer successful, but failed to log transaction."
	}

	s.guard.Record(key, true)
	metrics.TransfersTotal.WithLabelValues("success").Inc()
	s.audit.write("transfer", req.From.ID, "transfer", map[string]any{
		"to": req.To.RateKey(), "amount": req.Amount,
	})
	return success(msg)
}

// authenticateSender resolves the sending account and validates the PIN. A
// pool has no PIN of its own; the PIN must match one of its owners.
func (s *TransferService) authenticateSender(ctx context.Context, key string, req TransferRequest) (int64, *Result) {
	switch req.From.Type {
	case models.AccountUser:
		u, err := s.users.GetByID(ctx, req.From.ID)
		if errors.Is(err, models.ErrNotFound) {
			r := s.fail(key, "Sender account not found.")
			return 0, &r
		}
		if err != nil {
			slog.Error("sender lookup failed", "from", key, "err", err)
			r := s.fail(key, "Database error.")
			return 0, &r
		}
		if u.PinHash == nil || !auth.VerifyPIN(req.Pin, *u.PinHash) {
			r := s.fail(key, "Invalid PIN.")
			return 0, &r
		}
		return u.Digipogs, nil

	case models.AccountPool:
		p, err := s.pools.GetByID(ctx, req.From.ID)
		if errors.Is(err, models.ErrNotFound) {
			r := s.fail(key, "Sender account not found.")
			return 0, &r
		}
		if err != nil {
			slog.Error("sender lookup failed", "from", key, "err", err)
			r := s.fail(key, "Database error.")
			return 0, &r
		}
		ok, err := s.pinMatchesOwner(ctx, p.ID, req.Pin)
		if err != nil {
			slog.Error("pool owner lookup failed", "from", key, "err", err)
			r := s.fail(key, "Database error.")
			return 0, &r
		}
		if !ok {
			r := s.fail(key, "Invalid PIN.")
			return 0, &r
		}
		return p.Amount, nil
	}
	r := failure("Missing or invalid account.")
	return 0, &r
}

func (s *TransferService) pinMatchesOwner(ctx context.Context, poolID int64, pin string) (bool, error) {
	members, err := s.pools.Members(ctx, poolID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if !m.Owner {
			continue
		}
		owner, err := s.users.GetByID(ctx, m.UserID)
		if err != nil {
			continue
		}
		if owner.PinHash != nil && auth.VerifyPIN(pin, *owner.PinHash) {
			return true, nil
		}
	}
	return false, nil
}

func (s *TransferService) checkRecipient(ctx context.Context, key string, to models.AccountRef) *Result {
	var err error
	if to.Type == models.AccountUser {
		_, err = s.users.GetByID(ctx, to.ID)
	} else {
		_, err = s.pools.GetByID(ctx, to.ID)
	}
	if errors.Is(err, models.ErrNotFound) {
		r := s.fail(key, "Recipient account not found.")
		return &r
	}
	if err != nil {
		slog.Error("recipient lookup failed", "from", key, "err", err)
		r := s.fail(key, "Database error.")
		return &r
	}
	return nil
}

func (s *TransferService) fail(key, msg string) Result {
	s.guard.Record(key, false)
	metrics.TransfersTotal.WithLabelValues("failure").Inc()
	return failure(msg)
}

func debit(ctx context.Context, tx repo.LedgerTx, ref models.AccountRef, amount int64) error {
	if ref.Type == models.AccountPool {
		return tx.DebitPool(ctx, ref.ID, amount)
	}
	return tx.DebitUser(ctx, ref.ID, amount)
}

func credit(ctx context.Context, tx repo.LedgerTx, ref models.AccountRef, amount int64) error {
	if ref.Type == models.AccountPool {
		return tx.CreditPool(ctx, ref.ID, amount)
	}
	return tx.CreditUser(ctx, ref.ID, amount)
}
