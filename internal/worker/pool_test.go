package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopDrainsQueuedJobs(t *testing.T) {
	p := NewPool(2)
	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	p.Stop()
	assert.Equal(t, int64(10), ran.Load())
}

func TestSubmitAfterStopIsDropped(t *testing.T) {
	p := NewPool(1)
	p.Stop()

	// Must neither panic nor run the job.
	p.Submit(func() { t.Error("job ran after stop") })
}

func TestStopIsIdempotent(t *testing.T) {
	p := NewPool(1)
	p.Stop()
	p.Stop()
}
