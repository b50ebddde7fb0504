package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/tinyimg/batch"
)

// ArchiveName is the file name of the bulk download
const ArchiveName = "tinyimg.zip"

// ErrEmptyExport is returned when there is no filled slot to export
var ErrEmptyExport = errors.New("no compressed files to export")

// Exporter builds downloads from the filled slots of a ledger snapshot
type Exporter struct {
	archiver Archiver
	sink     Sink
}

// NewExporter creates an Exporter; a nil archiver uses ZipArchiver
func NewExporter(archiver Archiver, sink Sink) *Exporter {
	if archiver == nil {
		archiver = ZipArchiver{}
	}
	return &Exporter{archiver: archiver, sink: sink}
}

// EntryName suffixes a file name with its ledger index: "a.jpg", 3 -> "a-3.jpg"
func EntryName(name string, index int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), index, ext)
}

// ItemFileName is the download name of a single result: tinyimg-<base>-<index>.jpg
func ItemFileName(sourceName string, index int) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return fmt.Sprintf("tinyimg-%s-%d.jpg", base, index)
}

// Entries lists the archive entries for every filled slot, in ledger order
func Entries(snap batch.Snapshot) ([]Entry, error) {
	var entries []Entry
	for _, i := range snap.FilledIndices() {
		r := snap.Results[i]
		entries = append(entries, Entry{
			Name: EntryName(r.Name, i),
			Data: r.Data,
		})
	}
	if len(entries) == 0 {
		return nil, ErrEmptyExport
	}
	return entries, nil
}

// Export archives the filled slots and delivers tinyimg.zip. Partial
// exports are allowed; empty ones fail with ErrEmptyExport.
func (e *Exporter) Export(ctx context.Context, snap batch.Snapshot) (string, error) {
	entries, err := Entries(snap)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.archiver.Build(ctx, entries, &buf); err != nil {
		return "", fmt.Errorf("failed to build archive: %w", err)
	}
	return e.sink.Deliver(ArchiveName, buf.Bytes())
}

// ExportItem delivers the result at index on its own
func (e *Exporter) ExportItem(snap batch.Snapshot, index int) (string, error) {
	if index < 0 || index >= snap.Len() {
		return "", fmt.Errorf("export %d of %d: %w", index, snap.Len(), batch.ErrIndexOutOfRange)
	}
	r := snap.Results[index]
	if r == nil {
		return "", fmt.Errorf("%s: %w", snap.Sources[index].Name, ErrEmptyExport)
	}
	return e.sink.Deliver(ItemFileName(snap.Sources[index].Name, index), r.Data)
}
