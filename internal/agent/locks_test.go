package agent

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadLocks_ReleasesEntries(t *testing.T) {
	var locks threadLocks
	for _, id := range []string{"twilio-CA1", "twilio-CA2", "cli-1"} {
		unlock := locks.lock(id)
		assert.Equal(t, 1, locks.len())
		unlock()
	}
	assert.Equal(t, 0, locks.len())
}

func TestThreadLocks_SerializesSameThread(t *testing.T) {
	var (
		locks   threadLocks
		running atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("twilio-CA1")
			defer unlock()
			n := running.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 0, locks.len())
}

func TestThreadLocks_OtherThreadsDoNotWait(t *testing.T) {
	var locks threadLocks
	unlock := locks.lock("a")
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.lock("b")()
		close(done)
	}()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, locks.len())
}
