package ui

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/tinyimg/archive"
	"github.com/lepinkainen/tinyimg/batch"
	"github.com/lepinkainen/tinyimg/photo"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, names ...string) (BatchModel, *batch.Ledger, string) {
	t.Helper()
	l := batch.NewLedger()
	files := make([]photo.SourceFile, len(names))
	for i, n := range names {
		files[i] = photo.SourceFile{Name: n, SizeBytes: 1000, MimeType: "image/png"}
	}
	l.Append(files)

	dir := t.TempDir()
	exp := archive.NewExporter(nil, archive.DirSink{Dir: dir})
	m := NewBatchModel(context.Background(), l, exp, "test")
	t.Cleanup(m.unsubscribe)
	return m, l, dir
}

func update(t *testing.T, m BatchModel, msg tea.Msg) (BatchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BatchModel)
	require.True(t, ok)
	return bm, cmd
}

func TestNewBatchModel(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png", "b.png")

	assert.Equal(t, 2, m.snap.Len())
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 0, m.stats.CompletedCount)
	assert.NotNil(t, m.Init())
}

func TestViewListsRows(t *testing.T) {
	m, l, _ := newTestModel(t, "a.png", "b.png")
	l.RecordResultAt(0, photo.ResultFile{Name: "a.jpg", SizeBytes: 250, Data: []byte("x")})
	m, _ = update(t, m, ledgerChangedMsg{})

	view := m.View()
	assert.Contains(t, view, "1. a.png")
	assert.Contains(t, view, "2. b.png")
	assert.Contains(t, view, "-75%")
	assert.Contains(t, view, "waiting")
	assert.Contains(t, view, "1/2")
	assert.Contains(t, view, "reduce the size by")
}

func TestViewEmpty(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No images")
}

func TestNarrowLayoutSplitsRows(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 40})
	assert.Equal(t, LayoutNarrow, LayoutFor(m.width))
	assert.Contains(t, m.row(0, LayoutNarrow), "\n   ")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.NotContains(t, m.row(0, LayoutFor(m.width)), "\n")
}

func TestCursorMovement(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png", "b.png", "c.png")

	m, _ = update(t, m, keyPress("j"))
	m, _ = update(t, m, keyPress("j"))
	m, _ = update(t, m, keyPress("j"))
	assert.Equal(t, 2, m.cursor)

	m, _ = update(t, m, keyPress("k"))
	assert.Equal(t, 1, m.cursor)
}

func TestDeleteRemovesSelected(t *testing.T) {
	m, l, _ := newTestModel(t, "a.png", "b.png", "c.png")

	m, _ = update(t, m, keyPress("j"))
	m, _ = update(t, m, keyPress("d"))

	snap := l.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "a.png", snap.Sources[0].Name)
	assert.Equal(t, "c.png", snap.Sources[1].Name)
	assert.Contains(t, m.status, "Removed b.png")
}

func TestDeleteLastClampsCursor(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png", "b.png")

	m, _ = update(t, m, keyPress("j"))
	m, _ = update(t, m, keyPress("d"))
	assert.Equal(t, 0, m.cursor)
}

func TestClearRequiresSettledBatch(t *testing.T) {
	m, l, _ := newTestModel(t, "a.png")

	m, _ = update(t, m, keyPress("c"))
	assert.False(t, m.confirmClear)
	assert.True(t, m.statusErr)
	assert.Equal(t, 1, l.Len())
}

func TestClearWithConfirmation(t *testing.T) {
	m, l, _ := newTestModel(t, "a.png", "b.png")
	l.RecordResultAt(0, photo.ResultFile{Name: "a.jpg", SizeBytes: 10})
	snap := l.Snapshot()
	l.RecordFailure(snap.IDs[1], errors.New("broken"))
	m, _ = update(t, m, ledgerChangedMsg{})

	m, _ = update(t, m, keyPress("c"))
	require.True(t, m.confirmClear)
	assert.Contains(t, m.View(), "Clear all 2 images?")

	m, _ = update(t, m, keyPress("n"))
	assert.False(t, m.confirmClear)
	assert.Equal(t, 2, l.Len())

	m, _ = update(t, m, keyPress("c"))
	m, _ = update(t, m, keyPress("y"))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, m.snap.Len())
}

func TestArchiveWaitsForSettledBatch(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png")

	m, cmd := update(t, m, keyPress("a"))
	assert.Nil(t, cmd)
	assert.False(t, m.exporting)
	assert.True(t, m.statusErr)
}

func TestArchiveEmptyBatchReportsNothingToDownload(t *testing.T) {
	m, l, dir := newTestModel(t, "a.png")
	l.RecordFailure(l.Snapshot().IDs[0], errors.New("broken"))
	m, _ = update(t, m, ledgerChangedMsg{})

	m, cmd := update(t, m, keyPress("a"))
	require.NotNil(t, cmd)
	assert.True(t, m.exporting)

	msg := cmd()
	done, ok := msg.(ExportDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.Err, archive.ErrEmptyExport)

	m, _ = update(t, m, done)
	assert.False(t, m.exporting)
	assert.Equal(t, "Nothing to download yet", m.status)

	_, err := os.Stat(filepath.Join(dir, archive.ArchiveName))
	assert.True(t, os.IsNotExist(err))
}

func TestArchiveWritesZip(t *testing.T) {
	m, l, dir := newTestModel(t, "a.png", "b.png")
	l.RecordFailure(l.Snapshot().IDs[0], errors.New("broken"))
	l.RecordResultAt(1, photo.ResultFile{Name: "b.jpg", SizeBytes: 3, Data: []byte("jpg")})
	m, _ = update(t, m, ledgerChangedMsg{})

	_, cmd := update(t, m, keyPress("a"))
	require.NotNil(t, cmd)
	done, ok := cmd().(ExportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, filepath.Join(dir, archive.ArchiveName), done.Path)

	zr, err := zip.OpenReader(done.Path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "b-1.jpg", zr.File[0].Name)
}

func TestSaveSelectedItem(t *testing.T) {
	m, l, dir := newTestModel(t, "a.png")
	l.RecordResultAt(0, photo.ResultFile{Name: "a.jpg", SizeBytes: 3, Data: []byte("jpg")})

	_, cmd := update(t, m, keyPress("s"))
	done := cmd().(ExportDoneMsg)
	require.NoError(t, done.Err)
	assert.Equal(t, filepath.Join(dir, "tinyimg-a-0.jpg"), done.Path)

	data, err := os.ReadFile(done.Path)
	require.NoError(t, err)
	assert.Equal(t, "jpg", string(data))
}

func TestQuitUnsubscribes(t *testing.T) {
	m, _, _ := newTestModel(t, "a.png")

	m, cmd := update(t, m, keyPress("q"))
	assert.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.True(t, strings.HasPrefix(m.View(), "Shutting down"))

	_, ok := <-m.changes
	assert.False(t, ok, "subscription channel should be closed")
}

func TestWaitForChangeDeliversMessage(t *testing.T) {
	m, l, _ := newTestModel(t, "a.png")

	l.RecordResultAt(0, photo.ResultFile{Name: "a.jpg", SizeBytes: 10})
	msg := waitForChange(m.changes)()
	assert.IsType(t, ledgerChangedMsg{}, msg)
}
