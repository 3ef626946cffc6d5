package permissions

import "sync"

// cacheKey identifies one resolved (user, application, parent) triple.
// The parent scope is part of the key: the same user and application can
// resolve to different levels depending on whether a parent fallback is
// in play.
type cacheKey struct {
	UserID              int
	ApplicationID       int
	ParentApplicationID int
}

// Cache memoizes resolution results per (user, application, parent).
// Callers must invalidate a user's entries whenever their group
// memberships change and an application's entries whenever its grants
// change; the cache itself never expires entries.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]Cruved
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]Cruved)}
}

// Get returns the cached result for the triple, if any. The returned map
// is a copy so callers cannot corrupt the cached entry.
func (c *Cache) Get(userID, applicationID, parentApplicationID int) (Cruved, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := cacheKey{
		UserID:              userID,
		ApplicationID:       applicationID,
		ParentApplicationID: parentApplicationID,
	}

	cruved, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	return copyCruved(cruved), true
}

// Set stores the result for the triple.
func (c *Cache) Set(userID, applicationID, parentApplicationID int, cruved Cruved) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{
		UserID:              userID,
		ApplicationID:       applicationID,
		ParentApplicationID: parentApplicationID,
	}

	c.entries[key] = copyCruved(cruved)
}

// InvalidateUser drops every cached result of one user.
func (c *Cache) InvalidateUser(userID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
		}
	}
}

// InvalidateApplication drops every cached result touching one
// application, whether it was the resolved scope or the parent fallback.
func (c *Cache) InvalidateApplication(applicationID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.ApplicationID == applicationID || key.ParentApplicationID == applicationID {
			delete(c.entries, key)
		}
	}
}

func copyCruved(cruved Cruved) Cruved {
	out := make(Cruved, len(cruved))
	for action, level := range cruved {
		out[action] = level
	}

	return out
}
