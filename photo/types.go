package photo

// RawFile is a candidate handed over by the user before admission
type RawFile struct {
	Name string
	Path string
	Type string // declared content type, e.g. "image/png"
	Size int64
	Data []byte
}

// SourceFile is an admitted image. It is never mutated after admission.
type SourceFile struct {
	Name      string
	Path      string
	SizeBytes int64
	MimeType  string
	Data      []byte

	// Natural dimensions, zero when not known yet
	NaturalWidth  int
	NaturalHeight int
}

// ResultFile is the output of one successful compression
type ResultFile struct {
	Name      string
	SizeBytes int64
	MimeType  string
	Data      []byte
	Width     int
	Height    int

	// Distance is the perceptual hash distance to the source, -1 when not measured
	Distance int
}

// Savings returns the fraction of bytes saved relative to src (0.0-1.0)
func (r ResultFile) Savings(src SourceFile) float64 {
	if src.SizeBytes <= 0 {
		return 0
	}
	return float64(src.SizeBytes-r.SizeBytes) / float64(src.SizeBytes)
}
