package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBounded_PreservesInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	// Earlier items finish later; output order must still match input order.
	results, err := MapBounded(context.Background(), items, 5, func(_ context.Context, idx int, item string) (string, error) {
		time.Sleep(time.Duration(len(items)-idx) * 5 * time.Millisecond)
		return item + "!", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a!", "b!", "c!", "d!", "e!"}, results)
}

func TestMapBounded_SequentialWhenConcurrencyOne(t *testing.T) {
	var order []int
	var mu sync.Mutex

	results, err := MapBounded(context.Background(), []int{10, 20, 30}, 1, func(_ context.Context, idx int, item int) (int, error) {
		mu.Lock()
		order = append(order, idx)
		mu.Unlock()
		return item * 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 40, 60}, results)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestMapBounded_RespectsConcurrencyCeiling(t *testing.T) {
	const concurrency = 3
	var inFlight, peak atomic.Int32

	_, err := MapBounded(context.Background(), make([]int, 20), concurrency, func(_ context.Context, _ int, _ int) (int, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(concurrency))
}

func TestMapBounded_SingleFailureAbortsBatch(t *testing.T) {
	boom := errors.New("boom")

	_, err := MapBounded(context.Background(), []int{1, 2, 3}, 2, func(_ context.Context, _ int, item int) (int, error) {
		if item == 2 {
			return 0, boom
		}
		return item, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMapBounded_EmptyInput(t *testing.T) {
	results, err := MapBounded(context.Background(), nil, 4, func(_ context.Context, _ int, _ int) (int, error) {
		return 0, fmt.Errorf("must not be called")
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
