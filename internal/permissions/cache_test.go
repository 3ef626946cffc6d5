package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache()

	_, ok := c.Get(1, 10, 0)
	assert.False(t, ok)

	c.Set(1, 10, 0, Cruved{ActionRead: 3})

	got, ok := c.Get(1, 10, 0)
	require.True(t, ok)
	assert.Equal(t, 3, got[ActionRead])

	// The cached entry is isolated from caller mutation.
	got[ActionRead] = 6

	again, ok := c.Get(1, 10, 0)
	require.True(t, ok)
	assert.Equal(t, 3, again[ActionRead])
}

// Results for the same application under different parent scopes are
// distinct entries.
func TestCacheKeyedByParentScope(t *testing.T) {
	c := NewCache()

	c.Set(1, 10, 0, Cruved{ActionRead: 0})
	c.Set(1, 10, 5, Cruved{ActionRead: 6})

	got, ok := c.Get(1, 10, 0)
	require.True(t, ok)
	assert.Equal(t, 0, got[ActionRead])

	got, ok = c.Get(1, 10, 5)
	require.True(t, ok)
	assert.Equal(t, 6, got[ActionRead])
}

func TestCacheInvalidateUser(t *testing.T) {
	c := NewCache()
	c.Set(1, 10, 0, Cruved{ActionRead: 1})
	c.Set(1, 11, 0, Cruved{ActionRead: 2})
	c.Set(2, 10, 0, Cruved{ActionRead: 3})

	c.InvalidateUser(1)

	_, ok := c.Get(1, 10, 0)
	assert.False(t, ok)
	_, ok = c.Get(1, 11, 0)
	assert.False(t, ok)

	got, ok := c.Get(2, 10, 0)
	require.True(t, ok)
	assert.Equal(t, 3, got[ActionRead])
}

func TestCacheInvalidateApplication(t *testing.T) {
	c := NewCache()
	c.Set(1, 10, 0, Cruved{ActionRead: 1})
	c.Set(2, 10, 0, Cruved{ActionRead: 2})
	c.Set(2, 11, 0, Cruved{ActionRead: 3})
	// Entry where the invalidated application is the parent scope.
	c.Set(3, 12, 10, Cruved{ActionRead: 4})

	c.InvalidateApplication(10)

	_, ok := c.Get(1, 10, 0)
	assert.False(t, ok)
	_, ok = c.Get(2, 10, 0)
	assert.False(t, ok)
	_, ok = c.Get(3, 12, 10)
	assert.False(t, ok)

	got, ok := c.Get(2, 11, 0)
	require.True(t, ok)
	assert.Equal(t, 3, got[ActionRead])
}
