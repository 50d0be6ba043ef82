package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oddsKey(ref string) Key {
	return Key{Category: "odds", Sport: "nfl", Ref: ref}
}

// TestKeyString tests key string representation
func TestKeyString(t *testing.T) {
	key := Key{Category: "stats", Sport: "nba", Ref: "team-7"}
	assert.Equal(t, "stats:nba:team-7", key.String())
}

// TestGetMiss returns absent for an unknown key
func TestGetMiss(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	_, found := c.Get(oddsKey("game-1"))
	assert.False(t, found)
}

// TestSetThenGet returns the stored value inside the window
func TestSetThenGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	c.Set(key, 42, 5*time.Minute)

	v, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, 42, v)
}

// TestExpiry treats an entry past its TTL as absent
func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	c.Set(key, "quote", 50*time.Millisecond)

	_, found := c.Get(key)
	require.True(t, found)

	time.Sleep(80 * time.Millisecond)

	_, found = c.Get(key)
	assert.False(t, found)
}

// TestSetResetsWindow verifies overwriting resets the entry timestamp
func TestSetResetsWindow(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	c.Set(key, "stale", 60*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	c.Set(key, "fresh", 60*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	v, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, "fresh", v)
}

// TestFetchMemoizes verifies repeated fetches inside the window invoke the
// computation once
func TestFetchMemoizes(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 5; i++ {
		v, err := c.Fetch(key, time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)
	}
	assert.Equal(t, 1, calls)
}

// TestFetchRecomputesAfterExpiry verifies the window governs recomputation
func TestFetchRecomputesAfterExpiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := c.Fetch(key, 40*time.Millisecond, compute)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	v, err := c.Fetch(key, 40*time.Millisecond, compute)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

// TestFetchError does not cache failures
func TestFetchError(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	boom := errors.New("upstream down")

	_, err := c.Fetch(key, time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.Fetch(key, time.Minute, func() (interface{}, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

// TestFetchSerializesPerKey verifies a burst of concurrent misses computes once
func TestFetchSerializesPerKey(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(key, time.Minute, func() (interface{}, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				return "v", nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}

// TestDeleteSport removes entries across categories for one sport only
func TestDeleteSport(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	c.Set(Key{Category: "odds", Sport: "nfl", Ref: "g1"}, 1, time.Minute)
	c.Set(Key{Category: "stats", Sport: "nfl", Ref: "t1"}, 2, time.Minute)
	c.Set(Key{Category: "odds", Sport: "nba", Ref: "g2"}, 3, time.Minute)

	c.DeleteSport("nfl")

	_, found := c.Get(Key{Category: "odds", Sport: "nfl", Ref: "g1"})
	assert.False(t, found)
	_, found = c.Get(Key{Category: "stats", Sport: "nfl", Ref: "t1"})
	assert.False(t, found)
	_, found = c.Get(Key{Category: "odds", Sport: "nba", Ref: "g2"})
	assert.True(t, found)
}

// TestStats tracks hits and misses
func TestStats(t *testing.T) {
	c := New(time.Minute)
	defer c.Flush()

	key := oddsKey("game-1")

	_, _ = c.Get(key) // miss
	c.Set(key, 1, time.Minute)
	_, _ = c.Get(key) // hit

	hits, misses, ratio := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)
}
