package types

// Substitution maps constructors (usually type parameters) to projections.
type Substitution interface {
	Get(key Constructor) (Projection, bool)
	IsEmpty() bool
}

// MapSubstitution is a Substitution backed by a map.
type MapSubstitution map[Constructor]Projection

func (s MapSubstitution) Get(key Constructor) (Projection, bool) {
	p, ok := s[key]
	return p, ok
}

func (s MapSubstitution) IsEmpty() bool { return len(s) == 0 }

type emptySubstitution struct{}

func (emptySubstitution) Get(Constructor) (Projection, bool) { return Projection{}, false }
func (emptySubstitution) IsEmpty() bool                      { return true }

// Empty is the substitution that changes nothing.
var Empty Substitution = emptySubstitution{}

// NewSubstitution maps params[i] to args[i]. Extra entries on either side
// are ignored.
func NewSubstitution(params []Parameter, args []Projection) Substitution {
	n := min(len(params), len(args))
	if n == 0 {
		return Empty
	}
	m := make(MapSubstitution, n)
	for i := 0; i < n; i++ {
		m[params[i]] = args[i]
	}
	return m
}

type chained struct {
	first, second Substitution
}

// Chain consults first, then second.
func Chain(first, second Substitution) Substitution {
	switch {
	case first == nil || first.IsEmpty():
		if second == nil {
			return Empty
		}
		return second
	case second == nil || second.IsEmpty():
		return first
	}
	return chained{first: first, second: second}
}

func (c chained) Get(key Constructor) (Projection, bool) {
	if p, ok := c.first.Get(key); ok {
		return p, true
	}
	return c.second.Get(key)
}

func (c chained) IsEmpty() bool { return false }
