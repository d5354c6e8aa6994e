package cache

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet_RoundTrips(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("a", 1, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGet_MissingKey(t *testing.T) {
	c := New(time.Minute, 10)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestGet_ExpiredEntryIsEvicted(t *testing.T) {
	c := New(time.Minute, 10)
	fixed := time.Now()
	c.now = func() time.Time { return fixed }

	c.Set("a", 1, 10*time.Millisecond)
	c.now = func() time.Time { return fixed.Add(20 * time.Millisecond) }

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSet_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", "va", 0)
	c.Set("b", "vb", 0)

	// touch "a" so "b" becomes the LRU candidate
	_, _ = c.Get("a")

	c.Set("c", "vc", 0)

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")

	assert.True(t, aOK)
	assert.False(t, bOK, "b should have been evicted as least recently used")
	assert.True(t, cOK)
	assert.Equal(t, 2, c.Len())
}

func TestDelete_RemovesKey(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("a", 1, 0)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestInvalidatePattern_RemovesMatchingKeysOnly(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("stock:p1:s1", 1, 0)
	c.Set("stock:p1:s2", 2, 0)
	c.Set("availability:p1:s1", 3, 0)

	c.InvalidatePattern(regexp.MustCompile(`^stock:`))

	_, stock1 := c.Get("stock:p1:s1")
	_, stock2 := c.Get("stock:p1:s2")
	_, avail := c.Get("availability:p1:s1")

	assert.False(t, stock1)
	assert.False(t, stock2)
	assert.True(t, avail)
}

func TestClear_RemovesEverything(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCleanupExpired_RemovesOnlyExpiredEntries(t *testing.T) {
	c := New(time.Minute, 10)
	fixed := time.Now()
	c.now = func() time.Time { return fixed }

	c.Set("short", 1, 10*time.Millisecond)
	c.Set("long", 2, time.Hour)

	c.now = func() time.Time { return fixed.Add(20 * time.Millisecond) }
	removed := c.CleanupExpired()

	assert.Equal(t, 1, removed)
	_, longOK := c.Get("long")
	assert.True(t, longOK)
}

func TestSet_OverwritingExistingKeyDoesNotConsumeCapacityTwice(t *testing.T) {
	c := New(time.Minute, 1)
	c.Set("a", "v1", 0)
	c.Set("a", "v2", 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Len())
}
