package types

// Variance is a declaration-site or use-site variance.
type Variance uint8

const (
	Invariant Variance = iota
	In
	Out
)

// Label is the source keyword, empty for Invariant.
func (v Variance) Label() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	}
	return ""
}

func (v Variance) String() string {
	if v == Invariant {
		return "invariant"
	}
	return v.Label()
}

// Opposite swaps In and Out.
func (v Variance) Opposite() Variance {
	switch v {
	case In:
		return Out
	case Out:
		return In
	}
	return Invariant
}

// AllowsPosition reports whether a parameter of variance v may appear in
// a position of variance pos.
func (v Variance) AllowsPosition(pos Variance) bool {
	switch v {
	case In:
		return pos != Out
	case Out:
		return pos != In
	}
	return true
}

type varianceConflict uint8

const (
	noConflict varianceConflict = iota
	outInInPosition
	inInOutPosition
)

func conflictOf(position, argument Variance) varianceConflict {
	switch {
	case position == In && argument == Out:
		return outInInPosition
	case position == Out && argument == In:
		return inInOutPosition
	}
	return noConflict
}

// combine merges a declared variance with a use-site projection. Callers
// have already ruled out conflicting pairs.
func combine(declared, projection Variance) Variance {
	if declared == Invariant {
		return projection
	}
	return declared
}
