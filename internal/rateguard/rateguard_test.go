package rateguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxAttempts:     3,
		AttemptWindow:   time.Minute,
		LockoutDuration: 5 * time.Minute,
		MinDelay:        time.Second,
	}
}

func newTestGuard(cfg Config) (*Memory, *time.Time) {
	m := New(cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	m.now = func() time.Time { return *clock }
	return m, clock
}

func TestFirstCheckAllows(t *testing.T) {
	m, _ := newTestGuard(testConfig())
	res := m.Check("user-1")
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Message)
}

func TestMinDelayDenies(t *testing.T) {
	m, clock := newTestGuard(testConfig())
	m.Check("user-1")
	m.Record("user-1", false)

	*clock = clock.Add(200 * time.Millisecond)
	res := m.Check("user-1")
	require.False(t, res.Allowed)
	assert.Contains(t, res.Message, "too fast")
	assert.Equal(t, 1, res.WaitTime)

	*clock = clock.Add(time.Second)
	res = m.Check("user-1")
	assert.True(t, res.Allowed)
}

func TestLockoutAfterMaxAttempts(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestGuard(cfg)

	for i := 0; i < cfg.MaxAttempts; i++ {
		res := m.Check("user-1")
		require.True(t, res.Allowed, "attempt %d", i)
		m.Record("user-1", false)
		*clock = clock.Add(2 * time.Second)
	}

	res := m.Check("user-1")
	require.False(t, res.Allowed)
	assert.Contains(t, res.Message, "Too many failed attempts")
	assert.Equal(t, int(cfg.LockoutDuration/time.Second), res.WaitTime)

	// Still denied mid-lockout, with a shrinking wait.
	*clock = clock.Add(time.Minute)
	res = m.Check("user-1")
	require.False(t, res.Allowed)
	assert.Equal(t, 4*60, res.WaitTime)

	// Lock expires and attempts reset.
	*clock = clock.Add(cfg.LockoutDuration)
	res = m.Check("user-1")
	assert.True(t, res.Allowed)
}

func TestSuccessClearsFailureHistory(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestGuard(cfg)

	for i := 0; i < cfg.MaxAttempts-1; i++ {
		m.Check("user-1")
		m.Record("user-1", false)
		*clock = clock.Add(2 * time.Second)
	}
	m.Check("user-1")
	m.Record("user-1", true)
	*clock = clock.Add(2 * time.Second)

	// One more failure would have locked without the reset.
	res := m.Check("user-1")
	require.True(t, res.Allowed)
	m.Record("user-1", false)
	*clock = clock.Add(2 * time.Second)
	res = m.Check("user-1")
	assert.True(t, res.Allowed)
}

func TestFailuresOutsideWindowDoNotCount(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestGuard(cfg)

	for i := 0; i < cfg.MaxAttempts; i++ {
		m.Check("user-1")
		m.Record("user-1", false)
		*clock = clock.Add(2 * time.Second)
	}
	*clock = clock.Add(cfg.AttemptWindow)
	res := m.Check("user-1")
	assert.True(t, res.Allowed)
}

func TestRecordsAreIndependentPerAccount(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestGuard(cfg)

	for i := 0; i < cfg.MaxAttempts; i++ {
		m.Check("user-1")
		m.Record("user-1", false)
		*clock = clock.Add(2 * time.Second)
	}
	require.False(t, m.Check("user-1").Allowed)
	assert.True(t, m.Check("user-2").Allowed)
}

func TestSweepDropsStaleRecords(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestGuard(cfg)

	m.Check("stale")
	m.Record("stale", false)

	for i := 0; i < cfg.MaxAttempts; i++ {
		m.Check("locked")
		m.Record("locked", false)
		*clock = clock.Add(2 * time.Second)
	}
	require.False(t, m.Check("locked").Allowed)

	*clock = clock.Add(cfg.AttemptWindow + time.Second)
	m.sweep()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.NotContains(t, m.records, "stale")
	assert.Contains(t, m.records, "locked") // still locked, kept
}
