package repo

import (
	"context"
	"sync"

	"github.com/storelens-ai/storelens/domains/usage/be/service"
)

// MemoryCounter is an in-memory Counter for tests and early development.
// A single mutex serializes check-and-increment, which is exactly the
// atomicity the real backends provide per key.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

// NewMemoryCounter constructs a MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]map[string]int)}
}

func (c *MemoryCounter) IncrementIfBelow(ctx context.Context, shopDomain, metric string, limit int) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage, ok := c.counts[shopDomain]
	if !ok {
		usage = map[string]int{}
		c.counts[shopDomain] = usage
	}

	current := usage[metric]
	if limit >= 0 && current >= limit {
		return current, false, nil
	}
	usage[metric] = current + 1
	return current + 1, true, nil
}

func (c *MemoryCounter) Usage(ctx context.Context, shopDomain string) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := map[string]int{}
	for metric, count := range c.counts[shopDomain] {
		out[metric] = count
	}
	return out, nil
}

func (c *MemoryCounter) ResetAll(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reset := int64(0)
	for shop, usage := range c.counts {
		if len(usage) > 0 {
			reset++
		}
		delete(c.counts, shop)
	}
	return reset, nil
}

// Ensure interface compliance.
var _ service.Counter = (*MemoryCounter)(nil)
