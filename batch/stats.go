package batch

// Stats is the aggregate view of a snapshot shown to the user
type Stats struct {
	CompletedCount int
	FailedCount    int
	InFlightCount  int
	TotalCount     int

	SourceBytes int64 // all sources
	ResultBytes int64 // filled slots only

	// PercentSaved is a running estimate: filled result bytes against the
	// bytes of all sources, so it converges as slots fill
	PercentSaved float64
}

// Fraction is the completed share of the batch (0.0-1.0)
func (s Stats) Fraction() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CompletedCount) / float64(s.TotalCount)
}

// Compute derives Stats from a snapshot
func Compute(snap Snapshot) Stats {
	st := Stats{
		TotalCount:    snap.Len(),
		InFlightCount: len(snap.InFlight),
	}

	for i, src := range snap.Sources {
		st.SourceBytes += src.SizeBytes
		if r := snap.Results[i]; r != nil {
			st.CompletedCount++
			st.ResultBytes += r.SizeBytes
		} else if snap.Failures[i] != nil {
			st.FailedCount++
		}
	}

	if st.TotalCount == 0 || st.ResultBytes == 0 || st.SourceBytes == 0 {
		return st
	}
	st.PercentSaved = 100 - 100*float64(st.ResultBytes)/float64(st.SourceBytes)
	return st
}
