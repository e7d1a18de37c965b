package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New[string](4, time.Minute)
	require.NoError(t, err)

	c.Set("a", "1")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, err := New[int](4, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", 7)
	now = now.Add(59 * time.Second)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[int](2, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_Purge(t *testing.T) {
	c, err := New[int](8, time.Minute)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), i)
	}

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Nil(t *testing.T) {
	var c *Cache[int]
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New[int](0, time.Minute)
	assert.Error(t, err)
}
