package schedule

import "untiscal/internal/model"

// IDGenerator hands out ids for synthetic periods as a deterministic
// run-scoped sequence. Every candidate is checked against the ids
// already in use, so synthetic ids never collide with fetched,
// round-tripped or previously generated ones.
type IDGenerator struct {
	used map[int]struct{}
	next int
}

// NewIDGenerator seeds the generator with every id the run has seen.
func NewIDGenerator(periods ...[]model.Period) *IDGenerator {
	g := &IDGenerator{
		used: make(map[int]struct{}),
		next: 1,
	}
	for _, set := range periods {
		for _, p := range set {
			g.Reserve(p.ID)
		}
	}
	return g
}

// Reserve marks an id as taken.
func (g *IDGenerator) Reserve(id int) {
	g.used[id] = struct{}{}
}

// Next returns the lowest unused id and marks it taken.
func (g *IDGenerator) Next() int {
	for {
		id := g.next
		g.next++
		if _, taken := g.used[id]; !taken {
			g.used[id] = struct{}{}
			return id
		}
	}
}
