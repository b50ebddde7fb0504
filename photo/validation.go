package photo

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AcceptedTypes lists the content types admitted for compression
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// IsAcceptedType reports whether the declared content type is in the allow-list
func IsAcceptedType(mimeType string) bool {
	for _, t := range AcceptedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// IsImageFile checks the extension against the accepted image extensions.
// Used only for directory expansion, admission always goes by content type.
func IsImageFile(path string) bool {
	var desiredExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range desiredExtensions {
		if v == ext {
			return true
		}
	}
	return false
}

// Check returns ErrUnsupportedType if the candidate would not be admitted
func Check(c RawFile) error {
	if !IsAcceptedType(c.Type) {
		return fmt.Errorf("%s (%q): %w", c.Name, c.Type, ErrUnsupportedType)
	}
	return nil
}

// Admit keeps the candidates with an accepted content type, in input order.
// Rejected candidates are dropped without notice.
func Admit(candidates []RawFile) []SourceFile {
	admitted := make([]SourceFile, 0, len(candidates))
	for _, c := range candidates {
		if Check(c) != nil {
			continue
		}
		size := c.Size
		if size == 0 {
			size = int64(len(c.Data))
		}
		admitted = append(admitted, SourceFile{
			Name:      c.Name,
			Path:      c.Path,
			SizeBytes: size,
			MimeType:  c.Type,
			Data:      c.Data,
		})
	}
	return admitted
}
