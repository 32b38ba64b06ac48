package testutil

import (
	"io/fs"
	"sync"

	"github.com/modlay/modlay/pkg/types"
)

// CountingFS wraps a types.FS and counts mutating calls per path.
// Tests use it to assert that idempotent operations perform zero
// writes and that profile switches touch only the expected paths.
type CountingFS struct {
	types.FS

	mu      sync.Mutex
	writes  map[string]int
	removes map[string]int
}

// NewCountingFS wraps the given filesystem with mutation counters
func NewCountingFS(inner types.FS) *CountingFS {
	return &CountingFS{
		FS:      inner,
		writes:  make(map[string]int),
		removes: make(map[string]int),
	}
}

func (c *CountingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	c.mu.Lock()
	c.writes[name]++
	c.mu.Unlock()
	return c.FS.WriteFile(name, data, perm)
}

func (c *CountingFS) Remove(name string) error {
	c.mu.Lock()
	c.removes[name]++
	c.mu.Unlock()
	return c.FS.Remove(name)
}

// TotalWrites returns the number of WriteFile calls observed
func (c *CountingFS) TotalWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.writes {
		total += n
	}
	return total
}

// WritesTo returns the number of WriteFile calls for a specific path
func (c *CountingFS) WritesTo(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[name]
}

// RemovesOf returns the number of Remove calls for a specific path
func (c *CountingFS) RemovesOf(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removes[name]
}

// ResetCounts clears all recorded counts
func (c *CountingFS) ResetCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = make(map[string]int)
	c.removes = make(map[string]int)
}
