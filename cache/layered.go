package cache

// Layered consults its tiers in order. A hit in a lower tier back-fills every
// tier above it; writes, deletes and clears fan out to all tiers.
type Layered struct {
	tiers []Cache
}

// NewLayered composes tiers ordered fastest first. Nil tiers are dropped.
func NewLayered(tiers ...Cache) *Layered {
	filtered := make([]Cache, 0, len(tiers))
	for _, tier := range tiers {
		if tier != nil {
			filtered = append(filtered, tier)
		}
	}
	return &Layered{tiers: filtered}
}

// Tiers returns the number of composed tiers.
func (l *Layered) Tiers() int {
	return len(l.tiers)
}

func (l *Layered) Get(key string) (any, bool) {
	for i, tier := range l.tiers {
		value, ok := tier.Get(key)
		if !ok {
			continue
		}
		for j := 0; j < i; j++ {
			l.tiers[j].Set(key, value)
		}
		return value, true
	}
	return nil, false
}

func (l *Layered) Set(key string, value any) {
	for _, tier := range l.tiers {
		tier.Set(key, value)
	}
}

func (l *Layered) Delete(key string) {
	for _, tier := range l.tiers {
		tier.Delete(key)
	}
}

func (l *Layered) Clear() {
	for _, tier := range l.tiers {
		tier.Clear()
	}
}
