package commit

// GapClass classifies an incoming counter against the local commit cursor.
type GapClass int

const (
	// InOrder: the counter is the next expected one (or a concurrent
	// re-delivery of it).
	InOrder GapClass = iota
	// Gap: predecessors are missing and must commit first.
	Gap
	// Stale: at or below the cursor; already committed, duplicate no-op.
	Stale
)

// GapCheck is the outcome of one classification.
type GapCheck struct {
	Class    GapClass
	LocalMax uint64
	// GapSize is the number of missing predecessors, set only for Gap.
	GapSize uint64
}

// classifyGap compares the cryptographic header counter n against the local
// max committed counter. Counters are 1-based; the caller has already
// rejected n == 0.
//
// An unknown local max is passed in as 0: fail-closed, every predecessor
// must be backfilled (capped by FillCap) before n commits. Processing n
// optimistically would advance the chain past keys that can never be
// re-derived.
func classifyGap(n, localMax uint64) GapCheck {
	switch {
	case n <= localMax:
		return GapCheck{Class: Stale, LocalMax: localMax}
	case n == localMax+1:
		return GapCheck{Class: InOrder, LocalMax: localMax}
	default:
		return GapCheck{Class: Gap, LocalMax: localMax, GapSize: n - localMax - 1}
	}
}
