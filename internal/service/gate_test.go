package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateSerializesAccess(t *testing.T) {
	gate := NewGate(1)
	ctx := context.Background()

	require.NoError(t, gate.Acquire(ctx))

	// 名额占满时第二个 Acquire 阻塞直到超时
	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := gate.Acquire(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	gate.Release()
	require.NoError(t, gate.Acquire(ctx))
	gate.Release()
}

func TestGateCapacity(t *testing.T) {
	gate := NewGate(2)
	ctx := context.Background()

	require.NoError(t, gate.Acquire(ctx))
	require.NoError(t, gate.Acquire(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, gate.Acquire(waitCtx))

	gate.Release()
	gate.Release()
}

func TestGateMinimumCapacity(t *testing.T) {
	gate := NewGate(0)
	require.NoError(t, gate.Acquire(context.Background()))
	gate.Release()
}

func TestGateMutualExclusion(t *testing.T) {
	gate := NewGate(1)
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, gate.Acquire(context.Background()))
			defer gate.Release()

			now := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&maxActive)
				if now <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive), "critical section must never overlap")
}

func TestGateCancelledContext(t *testing.T) {
	gate := NewGate(1)
	require.NoError(t, gate.Acquire(context.Background()))
	defer gate.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gate.Acquire(ctx), context.Canceled)
}
