package analytics

// groups is a mapping that remembers the order in which keys were first seen.
type groups[K comparable, V any] struct {
	keys  []K
	index map[K]*V
}

func newGroups[K comparable, V any]() *groups[K, V] {
	return &groups[K, V]{index: make(map[K]*V)}
}

// get returns the accumulator for key, creating it on first use.
func (g *groups[K, V]) get(key K) *V {
	if v, ok := g.index[key]; ok {
		return v
	}
	v := new(V)
	g.index[key] = v
	g.keys = append(g.keys, key)
	return v
}

// each visits the groups in first-seen order.
func (g *groups[K, V]) each(fn func(K, *V)) {
	for _, k := range g.keys {
		fn(k, g.index[k])
	}
}

func (g *groups[K, V]) len() int {
	return len(g.keys)
}
