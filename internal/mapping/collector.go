package mapping

import (
	"github.com/zeebo/wyhash"
)

// Collector gathers mappings and drops duplicates.
type Collector struct {
	seen     map[uint64][]int
	mappings []PeptideProteinMapping
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[uint64][]int)}
}

// Add stores m unless an identical mapping was added before. It reports
// whether m was new.
func (c *Collector) Add(m PeptideProteinMapping) bool {
	key := m.key()
	h := wyhash.HashString(key, 0)
	for _, i := range c.seen[h] {
		if c.mappings[i].key() == key {
			return false
		}
	}
	c.seen[h] = append(c.seen[h], len(c.mappings))
	c.mappings = append(c.mappings, m)
	return true
}

// Len returns the number of distinct mappings.
func (c *Collector) Len() int {
	return len(c.mappings)
}

// Results returns the distinct mappings in sorted order.
func (c *Collector) Results() []PeptideProteinMapping {
	out := make([]PeptideProteinMapping, len(c.mappings))
	copy(out, c.mappings)
	Sort(out)
	return out
}
