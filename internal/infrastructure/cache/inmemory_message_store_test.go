package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryMessageStore_MarkProcessed(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryMessageStore(WithNow(clock.Now))
	defer store.Close()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "wamid.1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "wamid.1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again, "a redelivered message must be rejected")

	seen, err := store.IsProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, seen)

	clock.Advance(time.Hour)

	seen, err = store.IsProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, seen)

	afterExpiry, err := store.MarkProcessed(ctx, "wamid.1", time.Hour)
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}

func TestInMemoryMessageStore_Purge(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryMessageStore(WithNow(clock.Now))
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Len())

	clock.Advance(2 * time.Minute)
	store.purge()
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryMessageStore_ConcurrentDeliveries(t *testing.T) {
	store := NewInMemoryMessageStore()
	defer store.Close()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "wamid.same", time.Hour)
			assert.NoError(t, err)
			if ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryMessageStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryMessageStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func BenchmarkInMemoryMessageStore_MarkProcessed(b *testing.B) {
	store := NewInMemoryMessageStore()
	defer store.Close()
	ctx := context.Background()

	for i := 0; b.Loop(); i++ {
		_, _ = store.MarkProcessed(ctx, fmt.Sprintf("wamid.%d", i), time.Hour)
	}
}
