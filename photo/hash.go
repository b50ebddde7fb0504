package photo

import (
	"bytes"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// PerceptionHash decodes data and calculates its perceptual hash
func PerceptionHash(data []byte) (*goimagehash.ImageHash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate perceptual hash: %w", err)
	}

	return hash, nil
}

// PerceptualDistance returns the Hamming distance (0-64) between the
// perceptual hashes of two encoded images. Lower is more similar.
func PerceptualDistance(a, b []byte) (int, error) {
	ha, err := PerceptionHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := PerceptionHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}
