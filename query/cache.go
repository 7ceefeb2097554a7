package query

import lru "github.com/hashicorp/golang-lru/v2"

// planCache backs the Query Engine's structural-fingerprint plan cache
// (spec §4.6 "Query compilation is cached by a structural fingerprint
// ... the same pattern shape hits the cache even with different constant
// bindings"). The cached value is just the chosen join order (indices
// into the basic group's pattern slice); the resolved rete.Pattern
// constants are rebuilt fresh per query since two queries sharing a
// fingerprint can bind different constants.
type planCache struct {
	lru *lru.Cache[string, []int]
}

func newPlanCache(size int) *planCache {
	if size <= 0 {
		size = 256
	}
	c, _ := lru.New[string, []int](size)
	return &planCache{lru: c}
}

func (p *planCache) get(fp string) ([]int, bool) { return p.lru.Get(fp) }
func (p *planCache) put(fp string, order []int)   { p.lru.Add(fp, order) }
