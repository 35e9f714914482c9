package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpQueueRunsOneAtATimeInOrder(t *testing.T) {
	q := newOpQueue(8)
	defer q.Close()

	var (
		mu      sync.Mutex
		order   []int
		running int
		maxSeen int
	)
	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				running++
				maxSeen = max(maxSeen, running)
				order = append(order, i)
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Len(t, order, 5)
}

func TestOpQueueAfterClose(t *testing.T) {
	q := newOpQueue(1)
	q.Close()
	err := q.Do(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, errQueueClosed)
}

func TestOpQueueCancelledWait(t *testing.T) {
	q := newOpQueue(1)
	defer q.Close()

	release := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), func(context.Context) error {
			<-release
			return nil
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Do(ctx, func(context.Context) error { return nil })
	close(release)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
