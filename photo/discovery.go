package photo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// FindImageFilesRecursively scans a directory for files with an image extension
func FindImageFilesRecursively(directory string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandPaths expands directory arguments into the image files they contain.
// Regular files are passed through as-is so admission can judge them.
func ExpandPaths(paths []string) ([]string, error) {
	var expanded []string

	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !fi.IsDir() {
			expanded = append(expanded, path)
			continue
		}

		images, err := FindImageFilesRecursively(path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		expanded = append(expanded, images...)
	}

	return expanded, nil
}

// LoadRawFile reads a file into memory and sniffs its content type
func LoadRawFile(path string) (RawFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return RawFile{
		Name: filepath.Base(path),
		Path: path,
		Type: mimetype.Detect(data).String(),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// LoadRawFiles loads every path, returning the files that could be read and
// the errors for the ones that could not
func LoadRawFiles(paths []string) ([]RawFile, []error) {
	var (
		files []RawFile
		errs  []error
	)
	for _, p := range paths {
		f, err := LoadRawFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs
}
