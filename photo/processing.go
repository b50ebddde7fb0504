package photo

import (
	"context"
	"path/filepath"
	"strings"
)

// WorkerOptions holds the per-batch settings a Worker derives file options from
type WorkerOptions struct {
	Ceiling        int   // cap for the max-dimension hint
	Quality        int   // JPEG quality handed to the engine
	MaxSizeBytes   int64 // optional size target, 0 disables it
	KeepResolution bool
	MeasureQuality bool // compute the perceptual distance between source and result
}

// DefaultWorkerOptions uses a 1080 ceiling and keeps the resolution
func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Ceiling:        DefaultCeiling,
		Quality:        DefaultCompressOptions().Quality,
		KeepResolution: true,
	}
}

// Worker compresses a single SourceFile through a Compressor
type Worker struct {
	engine Compressor
	opts   WorkerOptions
	probe  func([]byte) (int, int, error)
}

// NewWorker creates a Worker around engine; a nil engine uses the default Engine
func NewWorker(engine Compressor, opts WorkerOptions) *Worker {
	if engine == nil {
		engine = NewEngine()
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	return &Worker{
		engine: engine,
		opts:   opts,
		probe:  ProbeDimensions,
	}
}

// Dimensions returns the natural size of src, probing the bytes when unknown
func (w *Worker) Dimensions(src SourceFile) (int, int, error) {
	if src.NaturalWidth > 0 && src.NaturalHeight > 0 {
		return src.NaturalWidth, src.NaturalHeight, nil
	}
	width, height, err := w.probe(src.Data)
	if err != nil {
		return 0, 0, &DecodeError{Name: src.Name, Err: err}
	}
	return width, height, nil
}

// OptionsFor derives the engine options for src from its own dimensions
func (w *Worker) OptionsFor(src SourceFile) (CompressOptions, error) {
	width, height, err := w.Dimensions(src)
	if err != nil {
		return CompressOptions{}, err
	}
	return CompressOptions{
		MaxWidthOrHeight: TargetDimension(width, height, w.opts.Ceiling),
		KeepResolution:   w.opts.KeepResolution,
		Quality:          w.opts.Quality,
		MaxSizeBytes:     w.opts.MaxSizeBytes,
	}, nil
}

// Compress runs the engine for src. Failures are *DecodeError or *CompressionError.
func (w *Worker) Compress(ctx context.Context, src SourceFile) (ResultFile, error) {
	opts, err := w.OptionsFor(src)
	if err != nil {
		return ResultFile{}, err
	}

	out, err := w.engine.Compress(ctx, src.Data, opts)
	if err != nil {
		return ResultFile{}, &CompressionError{Name: src.Name, Err: err}
	}

	mimeType := "image/jpeg"
	// A JPEG that only grows on re-encode is kept as it was
	if src.MimeType == "image/jpeg" && int64(len(out)) >= src.SizeBytes && len(src.Data) > 0 {
		out = src.Data
	}

	result := ResultFile{
		Name:      ResultName(src.Name),
		SizeBytes: int64(len(out)),
		MimeType:  mimeType,
		Data:      out,
		Distance:  -1,
	}
	if width, height, err := ProbeDimensions(out); err == nil {
		result.Width, result.Height = width, height
	}

	if w.opts.MeasureQuality {
		if d, err := PerceptualDistance(src.Data, out); err == nil {
			result.Distance = d
		}
	}

	return result, nil
}

// ResultName replaces the extension of a source name with .jpg
func ResultName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
