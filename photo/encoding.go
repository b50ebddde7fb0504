package photo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CompressOptions is what the engine receives for a single file
type CompressOptions struct {
	MaxWidthOrHeight int   // longest side of the output, 0 keeps the size
	KeepResolution   bool  // never shrink dimensions while chasing MaxSizeBytes
	Quality          int   // JPEG quality (1-100)
	MaxSizeBytes     int64 // 0 disables the size target
}

// Compressor re-encodes raw image bytes. Implementations must be safe for
// concurrent use.
type Compressor interface {
	Compress(ctx context.Context, data []byte, opts CompressOptions) ([]byte, error)
}

// DefaultCompressOptions returns the defaults used by the CLI
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		MaxWidthOrHeight: DefaultCeiling,
		KeepResolution:   true,
		Quality:          80,
	}
}

const (
	minQuality     = 10
	qualityStep    = 10
	shrinkFactor   = 0.9
	maxSizeRetries = 10
)

// Engine is the default Compressor: Lanczos downscale and JPEG re-encode
type Engine struct{}

// NewEngine creates the default compression engine
func NewEngine() *Engine {
	return &Engine{}
}

// Compress decodes data, fits it inside MaxWidthOrHeight and encodes it as JPEG.
// With MaxSizeBytes set it lowers the quality step by step (and the dimensions,
// unless KeepResolution is set) until the output fits or the retries run out.
func (e *Engine) Compress(ctx context.Context, data []byte, opts CompressOptions) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if opts.MaxWidthOrHeight > 0 {
		img = imaging.Fit(img, opts.MaxWidthOrHeight, opts.MaxWidthOrHeight, imaging.Lanczos)
	}
	img = flatten(img)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultCompressOptions().Quality
	}

	out, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}

	for i := 0; opts.MaxSizeBytes > 0 && int64(len(out)) > opts.MaxSizeBytes && i < maxSizeRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if quality > minQuality {
			quality = max(minQuality, quality-qualityStep)
		} else if opts.KeepResolution {
			break
		}
		if !opts.KeepResolution {
			w := int(float64(img.Bounds().Dx()) * shrinkFactor)
			if w < 1 {
				break
			}
			img = imaging.Resize(img, w, 0, imaging.Lanczos)
		}
		if out, err = encodeJPEG(img, quality); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten composites images with transparency onto white, JPEG has no alpha
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
