package scraper

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueConcurrencyLimit(t *testing.T) {
	q := NewQueue(2, 0)
	defer q.Close()

	var active, maxActive, completed int32
	for i := 0; i < 20; i++ {
		q.Enqueue(func() {
			current := atomic.AddInt32(&active, 1)
			for {
				max := atomic.LoadInt32(&maxActive)
				if current <= max || atomic.CompareAndSwapInt32(&maxActive, max, current) {
					break
				}
			}
			time.Sleep(time.Millisecond * 5)
			atomic.AddInt32(&active, -1)
			atomic.AddInt32(&completed, 1)
		})
	}
	q.Drain()

	require.Equal(t, int32(20), atomic.LoadInt32(&completed))
	require.LessOrEqual(t, atomic.LoadInt32(&maxActive), int32(2))
}

func TestQueueDispatchInterval(t *testing.T) {
	q := NewQueue(1, time.Millisecond*20)
	defer q.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		q.Enqueue(func() {})
	}
	q.Drain()

	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*40)
}

func TestQueueReusableAfterDrain(t *testing.T) {
	q := NewQueue(2, 0)
	defer q.Close()

	var completed int32
	q.Enqueue(func() { atomic.AddInt32(&completed, 1) })
	q.Drain()
	q.Enqueue(func() { atomic.AddInt32(&completed, 1) })
	q.Drain()

	require.Equal(t, int32(2), atomic.LoadInt32(&completed))
}
