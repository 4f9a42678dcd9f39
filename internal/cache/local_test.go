package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

func TestLocalGetSetDel(t *testing.T) {
	c, err := NewLocal("test", time.Minute, errMissing)
	require.NoError(t, err)
	ctx := context.Background()

	var got []string
	err = c.GetCtx(ctx, FundingMarketsKey(), &got)
	assert.True(t, c.IsNotFound(err))

	require.NoError(t, c.SetWithExpireCtx(ctx, FundingMarketsKey(), []string{"BTC", "ETH"}, time.Minute))
	require.NoError(t, c.GetCtx(ctx, FundingMarketsKey(), &got))
	assert.Equal(t, []string{"BTC", "ETH"}, got)

	require.NoError(t, c.DelCtx(ctx, FundingMarketsKey(), FundingLatestBatchKey()))
	assert.True(t, c.IsNotFound(c.Get(FundingMarketsKey(), &got)))
}

func TestLocalTakeRunsQueryOnce(t *testing.T) {
	c, err := NewLocal("take", time.Minute, errMissing)
	require.NoError(t, err)

	var calls int32
	query := func(v any) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		*v.(*int) = 42
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var v int
			assert.NoError(t, c.Take(&v, "answer", query))
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	var v int
	require.NoError(t, c.Take(&v, "answer", query))
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLocalTakePropagatesError(t *testing.T) {
	c, err := NewLocal("err", 0, errMissing)
	require.NoError(t, err)

	boom := errors.New("boom")
	var v int
	assert.ErrorIs(t, c.Take(&v, "k", func(any) error { return boom }), boom)
	assert.True(t, c.IsNotFound(c.Get("k", &v)))
}
