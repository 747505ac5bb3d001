package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newResultCache(time.Minute, 10)
	c.now = func() time.Time { return now }

	calls := 0
	compute := func() (any, error) { calls++; return calls, nil }

	v, hit, err := c.do("k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v)

	v, hit, _ = c.do("k", compute)
	assert.True(t, hit)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	v, hit, _ = c.do("k", compute)
	assert.False(t, hit)
	assert.Equal(t, 2, v)
}

func TestResultCache_Bounded(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newResultCache(time.Hour, 2)
	c.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		now = now.Add(time.Second)
		_, _, err := c.do(k, func() (any, error) { return k, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.size())
	_, hit, _ := c.do("a", func() (any, error) { return "a", nil })
	assert.False(t, hit, "oldest entry should have been evicted")
}

func TestResultCache_SingleFlight(t *testing.T) {
	c := newResultCache(time.Hour, 10)
	var calls atomic.Int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.do("k", func() (any, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestResultCache_ResetDropsInFlight(t *testing.T) {
	c := newResultCache(time.Hour, 10)

	_, _, err := c.do("k", func() (any, error) {
		c.reset()
		return 1, nil
	})
	require.NoError(t, err)
	assert.Zero(t, c.size())
}

func TestResultCache_Errors(t *testing.T) {
	c := newResultCache(time.Hour, 10)
	boom := errors.New("boom")

	_, _, err := c.do("k", func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.size())
}
