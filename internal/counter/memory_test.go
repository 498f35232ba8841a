package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_IncrBelowRespectsMax(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := store.IncrBelow(ctx, "c", 3)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := store.IncrBelow(ctx, "c", 3)
	require.NoError(t, err)
	require.False(t, ok)

	value, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.EqualValues(t, 3, value)
}

func TestMemoryStore_DecrClampsAtZero(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Decr(ctx, "c"))
	value, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.EqualValues(t, 0, value)
}

func TestMemoryStore_NeverExceedsMaxUnderContention(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	granted := make(chan struct{}, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.IncrBelow(ctx, "c", 5)
			require.NoError(t, err)
			if ok {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for range granted {
		count++
	}
	require.Equal(t, 5, count)

	value, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.EqualValues(t, 5, value)
}

func TestMemoryStore_ResetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.IncrBelow(ctx, "c", 10)
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "c", 0))

	value, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.EqualValues(t, 0, value)
}
