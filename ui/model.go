package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/tinyimg/archive"
	"github.com/lepinkainen/tinyimg/batch"
	"github.com/lepinkainen/tinyimg/utils"
)

// chrome is the number of lines used by everything but the file rows
const chrome = 12

// BatchModel is the interactive view over a batch. It only renders ledger
// snapshots and forwards delete, clear and export requests; results are
// written by the scheduler.
type BatchModel struct {
	ctx      context.Context
	ledger   *batch.Ledger
	exporter *archive.Exporter

	changes     <-chan struct{}
	unsubscribe func()

	// Latest observed state
	snap  batch.Snapshot
	stats batch.Stats

	// UI components
	progress progress.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	counter  Counter

	// Layout
	width  int
	height int
	offset int

	// Interaction state
	cursor       int
	confirmClear bool
	exporting    bool
	status       string
	statusErr    bool
	quitting     bool

	// Version for display
	Version string
}

// NewBatchModel creates a model subscribed to ledger changes
func NewBatchModel(ctx context.Context, ledger *batch.Ledger, exporter *archive.Exporter, version string) BatchModel {
	if ctx == nil {
		ctx = context.Background()
	}
	changes, cancel := ledger.Subscribe()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ProcessingStyle

	m := BatchModel{
		ctx:         ctx,
		ledger:      ledger,
		exporter:    exporter,
		changes:     changes,
		unsubscribe: cancel,
		progress:    progress.New(progress.WithDefaultGradient()),
		spinner:     sp,
		help:        help.New(),
		keys:        defaultKeyMap(),
		counter:     NewCounter(),
		Version:     version,
	}
	m.refresh()
	m.counter.SetTarget(m.stats.PercentSaved)
	return m
}

// Init implements tea.Model
func (m BatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes), m.spinner.Tick}
	if m.counter.Animating() {
		cmds = append(cmds, counterTick())
	}
	return tea.Batch(cmds...)
}

// waitForChange blocks until the ledger signals a change. A closed
// subscription ends the loop.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return ledgerChangedMsg{}
	}
}

// Update implements tea.Model
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmClear {
			return m.handleConfirmationInput(msg)
		}
		return m.handleNormalInput(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(msg.Width-20, 60))
		m.help.Width = msg.Width
		m.scrollToCursor()

	case ledgerChangedMsg:
		m.refresh()
		cmds := []tea.Cmd{waitForChange(m.changes)}
		if m.counter.SetTarget(m.stats.PercentSaved) {
			cmds = append(cmds, counterTick())
		}
		return m, tea.Batch(cmds...)

	case counterFrameMsg:
		if m.counter.Step() {
			return m, counterTick()
		}

	case ExportDoneMsg:
		m.exporting = false
		m.setExportStatus(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m BatchModel) handleNormalInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.scrollToCursor()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.snap.Len()-1 {
			m.cursor++
			m.scrollToCursor()
		}

	case key.Matches(msg, m.keys.Delete):
		if m.snap.Len() == 0 {
			return m, nil
		}
		name := m.snap.Sources[m.cursor].Name
		if err := m.ledger.DeleteAt(m.cursor); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Removed %s", name), false)
		// the change notification refreshes the snapshot; clamp now so
		// the cursor never points past the end in between
		m.refresh()

	case key.Matches(msg, m.keys.Clear):
		if m.snap.Len() == 0 {
			return m, nil
		}
		if !m.snap.Settled() {
			m.setStatus("Wait for the batch to finish before clearing", true)
			return m, nil
		}
		m.confirmClear = true

	case key.Matches(msg, m.keys.Archive):
		if m.exporting || m.exporter == nil {
			return m, nil
		}
		if !m.snap.Settled() {
			m.setStatus("Wait for the batch to finish before downloading", true)
			return m, nil
		}
		m.exporting = true
		m.setStatus("Building archive...", false)
		return m, exportArchive(m.ctx, m.exporter, m.ledger.Snapshot())

	case key.Matches(msg, m.keys.Save):
		if m.exporter == nil || m.snap.Len() == 0 {
			return m, nil
		}
		return m, exportItem(m.exporter, m.ledger.Snapshot(), m.cursor)
	}

	return m, nil
}

func (m BatchModel) handleConfirmationInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmClear = false
		m.ledger.Clear()
		m.refresh()
		m.setStatus("Cleared", false)

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.confirmClear = false
	}
	return m, nil
}

func exportArchive(ctx context.Context, exp *archive.Exporter, snap batch.Snapshot) tea.Cmd {
	return func() tea.Msg {
		path, err := exp.Export(ctx, snap)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func exportItem(exp *archive.Exporter, snap batch.Snapshot, index int) tea.Cmd {
	return func() tea.Msg {
		path, err := exp.ExportItem(snap, index)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (m *BatchModel) setExportStatus(msg ExportDoneMsg) {
	switch {
	case errors.Is(msg.Err, archive.ErrEmptyExport):
		m.setStatus("Nothing to download yet", true)
	case msg.Err != nil:
		m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
	default:
		m.setStatus(fmt.Sprintf("Saved %s", msg.Path), false)
	}
}

func (m *BatchModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *BatchModel) refresh() {
	m.snap = m.ledger.Snapshot()
	m.stats = batch.Compute(m.snap)
	if m.cursor >= m.snap.Len() {
		m.cursor = max(0, m.snap.Len()-1)
	}
	m.scrollToCursor()
}

// visibleRows is how many file rows fit on screen
func (m BatchModel) visibleRows() int {
	if m.height <= 0 {
		return m.snap.Len()
	}
	rows := m.height - chrome
	if LayoutFor(m.width) == LayoutNarrow {
		rows /= 2
	}
	return max(rows, 3)
}

func (m *BatchModel) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if visible > 0 && m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset > max(0, m.snap.Len()-visible) {
		m.offset = max(0, m.snap.Len()-visible)
	}
}

// View implements tea.Model
func (m BatchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	header := HeaderStyle.Render(fmt.Sprintf("TinyImg %s", m.Version))

	if m.snap.Len() == 0 {
		sections := []string{
			header,
			InfoStyle.Render("No images in this batch."),
			m.statusView(),
			m.help.View(m.keys),
		}
		return strings.Join(nonEmpty(sections), "\n\n")
	}

	overall := fmt.Sprintf("%s %d/%d",
		m.progress.ViewAs(m.stats.Fraction()),
		m.stats.CompletedCount,
		m.stats.TotalCount)
	if m.stats.FailedCount > 0 {
		overall += ErrorStyle.Render(fmt.Sprintf("  %d failed", m.stats.FailedCount))
	}

	summary := fmt.Sprintf("%s → %s, reduce the size by %s",
		utils.HumanizeBytes(m.stats.SourceBytes),
		utils.HumanizeBytes(m.stats.ResultBytes),
		SuccessStyle.Render(fmt.Sprintf("%d%%", m.counter.Value())))

	sections := []string{
		header,
		overall,
		summary,
		m.rowsView(),
		m.statusView(),
	}
	if m.confirmClear {
		sections = append(sections, ErrorStyle.Render(
			fmt.Sprintf("Clear all %d images? [y/n]", m.snap.Len())))
	}
	sections = append(sections, m.help.View(m.keys))

	return strings.Join(nonEmpty(sections), "\n\n")
}

func (m BatchModel) rowsView() string {
	layout := LayoutFor(m.width)
	end := min(m.snap.Len(), m.offset+m.visibleRows())

	var rows []string
	for i := m.offset; i < end; i++ {
		row := m.row(i, layout)
		if i == m.cursor {
			row = SelectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// row renders "N. name size > newsize status"; the narrow layout puts the
// sizes on a second, indented line
func (m BatchModel) row(i int, layout Layout) string {
	src := m.snap.Sources[i]
	name := fmt.Sprintf("%d. %s", i+1, src.Name)

	sizes := utils.HumanizeBytesCompact(src.SizeBytes) + " > "
	var state string
	switch m.snap.Status(i) {
	case batch.StatusDone:
		res := m.snap.Results[i]
		sizes += utils.HumanizeBytesCompact(res.SizeBytes)
		state = SuccessStyle.Render(fmt.Sprintf("✓ -%.0f%%", res.Savings(src)*100))
	case batch.StatusFailed:
		sizes += "-"
		state = ErrorStyle.Render("❌ failed")
	case batch.StatusInFlight:
		sizes += "..."
		state = m.spinner.View() + ProcessingStyle.Render(" compressing")
	default:
		sizes += "..."
		state = MutedStyle.Render("waiting")
	}

	if layout == LayoutNarrow {
		return fmt.Sprintf("%s\n   %s %s", name, sizes, state)
	}
	return fmt.Sprintf("%-40s %s %s", name, sizes, state)
}

func (m BatchModel) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return ErrorStyle.Render(m.status)
	}
	return InfoStyle.Render(m.status)
}

func nonEmpty(sections []string) []string {
	out := sections[:0:0]
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
