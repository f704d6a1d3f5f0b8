package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounterIncrementIfBelow(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		value, ok, err := counter.IncrementIfBelow(ctx, "acme.example.com", "questions", 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, value)
	}

	value, ok, err := counter.IncrementIfBelow(ctx, "acme.example.com", "questions", 3)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 3, value)
}

func TestMemoryCounterNegativeLimitUnbounded(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		value, ok, err := counter.IncrementIfBelow(ctx, "acme.example.com", "questions", -1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, value)
	}
}

func TestMemoryCounterMetricsIndependent(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	_, ok, err := counter.IncrementIfBelow(ctx, "acme.example.com", "questions", 1)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = counter.IncrementIfBelow(ctx, "acme.example.com", "reviewSummaries", 1)
	require.NoError(t, err)
	require.True(t, ok)

	usage, err := counter.Usage(ctx, "acme.example.com")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"questions": 1, "reviewSummaries": 1}, usage)
}

func TestMemoryCounterConcurrentBoundary(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	const limit = 50
	const workers = 8
	const attemptsPerWorker = 20 // 160 attempts against 50 slots

	var wg sync.WaitGroup
	granted := make(chan struct{}, workers*attemptsPerWorker)
	errs := make(chan error, workers*attemptsPerWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < attemptsPerWorker; j++ {
				_, ok, err := counter.IncrementIfBelow(ctx, "busy.example.com", "questions", limit)
				if err != nil {
					errs <- err
					continue
				}
				if ok {
					granted <- struct{}{}
				}
			}
		}()
	}
	wg.Wait()
	close(granted)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, granted, limit)

	usage, err := counter.Usage(ctx, "busy.example.com")
	require.NoError(t, err)
	require.Equal(t, limit, usage["questions"])
}

func TestMemoryCounterResetAll(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	_, _, err := counter.IncrementIfBelow(ctx, "a.example.com", "questions", 10)
	require.NoError(t, err)
	_, _, err = counter.IncrementIfBelow(ctx, "b.example.com", "questions", 10)
	require.NoError(t, err)

	reset, err := counter.ResetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), reset)

	usage, err := counter.Usage(ctx, "a.example.com")
	require.NoError(t, err)
	require.Empty(t, usage)
}
