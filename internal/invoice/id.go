package invoice

import (
	"fmt"
	"sync"
	"time"
)

const idModulus = 100_000_000

// IDGenerator issues INV-prefixed invoice ids from the last 8 digits of the
// clock's unix milliseconds. Within one generator the underlying millisecond
// value strictly increases, so two calls in the same millisecond still differ.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}

	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}

	g.last = ms

	return fmt.Sprintf("INV-%08d", ms%idModulus)
}
