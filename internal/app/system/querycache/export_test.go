package querycache

import "time"

// SetClock replaces the cache clock in tests.
func SetClock(c *Cache, now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
