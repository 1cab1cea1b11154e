package rateguard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// sweepInterval bounds how long empty, unlocked records linger in memory.
const sweepInterval = 5 * time.Minute

// Result of a rate check.
type Result struct {
	Allowed  bool
	Message  string
	WaitTime int // seconds until the caller may retry
}

// Guard throttles abusive attempt patterns per account identifier. It is not
// ledger truth; state may be lost on restart. Engines depend on this interface
// so the in-memory tracker can later be swapped for a shared cache.
type Guard interface {
	Check(accountID string) Result
	Record(accountID string, success bool)
}

type Config struct {
	MaxAttempts     int
	AttemptWindow   time.Duration
	LockoutDuration time.Duration
	MinDelay        time.Duration
}

type attempt struct {
	at      time.Time
	success bool
}

type record struct {
	attempts    []attempt
	lockedUntil time.Time
}

// Memory is the process-local Guard. A sliding window (not a fixed bucket)
// avoids burst-at-boundary abuse; a successful attempt clears prior failures
// so a legitimate retry after a typo is not penalized.
type Memory struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

func New(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg,
		now:     time.Now,
		records: make(map[string]*record),
	}
}

func (m *Memory) Check(accountID string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.records[accountID]
	if !ok {
		m.records[accountID] = &record{}
		return Result{Allowed: true}
	}

	if !rec.lockedUntil.IsZero() {
		if now.Before(rec.lockedUntil) {
			wait := secondsUntil(now, rec.lockedUntil)
			return Result{
				Message:  fmt.Sprintf("Rate limited. Please try again in %d seconds.", wait),
				WaitTime: wait,
			}
		}
		// Lock expired; start fresh.
		rec.lockedUntil = time.Time{}
		rec.attempts = nil
	}

	if n := len(rec.attempts); n > 0 {
		if since := now.Sub(rec.attempts[n-1].at); since < m.cfg.MinDelay {
			wait := secondsUntil(now, rec.attempts[n-1].at.Add(m.cfg.MinDelay))
			return Result{
				Message:  "You are doing that too fast. Please slow down.",
				WaitTime: wait,
			}
		}
	}

	rec.attempts = prune(rec.attempts, now.Add(-m.cfg.AttemptWindow))
	failed := 0
	for _, a := range rec.attempts {
		if !a.success {
			failed++
		}
	}
	if failed >= m.cfg.MaxAttempts {
		rec.lockedUntil = now.Add(m.cfg.LockoutDuration)
		wait := secondsUntil(now, rec.lockedUntil)
		return Result{
			Message:  fmt.Sprintf("Too many failed attempts. Locked out for %d seconds.", wait),
			WaitTime: wait,
		}
	}

	return Result{Allowed: true}
}

func (m *Memory) Record(accountID string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[accountID]
	if !ok {
		rec = &record{}
		m.records[accountID] = rec
	}
	if success {
		// A successful attempt resets abuse history.
		kept := rec.attempts[:0]
		for _, a := range rec.attempts {
			if a.success {
				kept = append(kept, a)
			}
		}
		rec.attempts = kept
		rec.lockedUntil = time.Time{}
	}
	rec.attempts = append(rec.attempts, attempt{at: m.now(), success: success})
}

// Run sweeps expired records until ctx is done.
func (m *Memory) Run(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.cfg.AttemptWindow)
	for id, rec := range m.records {
		if !rec.lockedUntil.IsZero() && now.Before(rec.lockedUntil) {
			continue
		}
		rec.attempts = prune(rec.attempts, cutoff)
		if len(rec.attempts) == 0 {
			delete(m.records, id)
		}
	}
}

func prune(attempts []attempt, cutoff time.Time) []attempt {
	kept := attempts[:0]
	for _, a := range attempts {
		if a.at.After(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}

func secondsUntil(now, until time.Time) int {
	s := int((until.Sub(now) + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
