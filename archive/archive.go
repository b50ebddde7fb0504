package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"time"
)

// Entry is one file inside an archive
type Entry struct {
	Name string
	Data []byte
}

// Archiver packs entries into a single archive written to w
type Archiver interface {
	Build(ctx context.Context, entries []Entry, w io.Writer) error
}

// ZipArchiver writes deflated zip archives
type ZipArchiver struct {
	// Modified is stamped on every entry; zero means time.Now()
	Modified time.Time
}

// Build writes entries to w in order
func (z ZipArchiver) Build(ctx context.Context, entries []Entry, w io.Writer) error {
	modified := z.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}

		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to add %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}
