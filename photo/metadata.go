package photo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultCeiling caps the max-dimension hint handed to the engine
const DefaultCeiling = 1080

// ProbeDimensions reads the natural width and height without decoding pixels
func ProbeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// TargetDimension is the smaller of width and height, capped at ceiling
func TargetDimension(width, height, ceiling int) int {
	minor := min(width, height)
	if ceiling > 0 && minor >= ceiling {
		return ceiling
	}
	return minor
}
