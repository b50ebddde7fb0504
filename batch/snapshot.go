package batch

import "github.com/lepinkainen/tinyimg/photo"

// Snapshot is a point-in-time copy of a Ledger. Sources, Results, Failures
// and IDs always have the same length and are indexed identically.
type Snapshot struct {
	IDs      []ItemID
	Sources  []photo.SourceFile
	Results  []*photo.ResultFile // nil marks an empty slot
	Failures []error             // non-nil marks a failed slot
	InFlight map[int]bool        // indices currently submitted to a worker
	Version  uint64
}

// Len returns the number of slots
func (s Snapshot) Len() int { return len(s.Sources) }

// Filled reports whether slot i holds a result
func (s Snapshot) Filled(i int) bool {
	return i >= 0 && i < len(s.Results) && s.Results[i] != nil
}

// Status derives the state of slot i
func (s Snapshot) Status(i int) Status {
	switch {
	case s.Filled(i):
		return StatusDone
	case s.InFlight[i]:
		return StatusInFlight
	case i >= 0 && i < len(s.Failures) && s.Failures[i] != nil:
		return StatusFailed
	default:
		return StatusPending
	}
}

// FilledIndices lists the indices of filled slots in ledger order
func (s Snapshot) FilledIndices() []int {
	var out []int
	for i := range s.Results {
		if s.Results[i] != nil {
			out = append(out, i)
		}
	}
	return out
}

// Settled reports whether every slot is filled or failed and nothing is in flight
func (s Snapshot) Settled() bool {
	if len(s.InFlight) > 0 {
		return false
	}
	for i := range s.Sources {
		if s.Results[i] == nil && s.Failures[i] == nil {
			return false
		}
	}
	return true
}
