package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cats and dogs", Normalize("  cats   and\tdogs "))
	assert.Equal(t, "cats", Normalize("cats"))
	assert.Equal(t, "", Normalize("   "))
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c := NewResolutionCache()
	_, ok := c.Get("cats", 1)
	assert.False(t, ok)
}

func TestHitRequiresEnoughURLs(t *testing.T) {
	c := NewResolutionCache()
	c.Put("cats", []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg", "https://a/4.jpg", "https://a/5.jpg"})

	urls, ok := c.Get("cats", 3)
	require.True(t, ok)
	assert.Len(t, urls, 5)

	urls, ok = c.Get("cats", 5)
	require.True(t, ok)
	assert.Len(t, urls, 5)

	// Asking for more than was cached is a miss
	_, ok = c.Get("cats", 10)
	assert.False(t, ok)
}

func TestKeysAreNormalized(t *testing.T) {
	c := NewResolutionCache()
	c.Put("  cats   dogs ", []string{"https://a/1.jpg"})

	_, ok := c.Get("cats dogs", 1)
	assert.True(t, ok)
}

func TestGetReturnsACopy(t *testing.T) {
	c := NewResolutionCache()
	c.Put("cats", []string{"https://a/1.jpg"})

	urls, ok := c.Get("cats", 1)
	require.True(t, ok)
	urls[0] = "mutated"

	fresh, ok := c.Get("cats", 1)
	require.True(t, ok)
	assert.Equal(t, "https://a/1.jpg", fresh[0])
}

func TestClear(t *testing.T) {
	c := NewResolutionCache()
	c.Put("cats", []string{"https://a/1.jpg"})
	c.Put("dogs", []string{"https://a/2.jpg"})
	require.Equal(t, 2, c.Len())

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("cats", 1)
	assert.False(t, ok)
}
