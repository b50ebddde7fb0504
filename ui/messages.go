package ui

// ledgerChangedMsg is sent whenever the ledger reports a change
type ledgerChangedMsg struct{}

// counterFrameMsg advances the percent-saved animation by one frame
type counterFrameMsg struct{}

// ExportDoneMsg reports the outcome of an archive or single-file export
type ExportDoneMsg struct {
	Path string
	Err  error
}
