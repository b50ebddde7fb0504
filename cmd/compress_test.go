package cmd

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/tinyimg/config"
	"github.com/lepinkainen/tinyimg/types"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	cmd := &CompressCmd{
		ChunkSize:      2,
		Pause:          "50ms",
		Quality:        60,
		MaxDimension:   720,
		MaxSizeKB:      100,
		Resize:         true,
		MeasureQuality: true,
		Out:            "elsewhere",
	}

	require.NoError(t, cmd.ApplyFlags(cfg))
	assert.Equal(t, 2, cfg.ChunkSize)
	assert.Equal(t, 50*time.Millisecond, cfg.ChunkPause)
	assert.Equal(t, 60, cfg.Quality)
	assert.Equal(t, 720, cfg.MaxDimension)
	assert.Equal(t, 100, cfg.MaxSizeKB)
	assert.False(t, cfg.KeepResolution)
	assert.True(t, cfg.MeasureQuality)
	assert.Equal(t, "elsewhere", cfg.OutDir)
}

func TestApplyFlags_ZeroKeepsConfig(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, (&CompressCmd{}).ApplyFlags(cfg))
	assert.Equal(t, config.Default(), cfg)
}

func TestApplyFlags_Invalid(t *testing.T) {
	assert.Error(t, (&CompressCmd{Pause: "soon"}).ApplyFlags(config.Default()))
	assert.Error(t, (&CompressCmd{Quality: 101}).ApplyFlags(config.Default()))
	assert.Error(t, (&CompressCmd{ChunkSize: -1}).ApplyFlags(config.Default()))
}

func TestCompressPlainWritesResults(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
		writePNG(t, filepath.Join(in, name), 64, 48)
	}
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0o644))

	cmd := &CompressCmd{
		Paths:     []string{in},
		ChunkSize: 2,
		Pause:     "0s",
		Out:       out,
		Archive:   true,
		NoTUI:     true,
	}
	require.NoError(t, cmd.Run(&types.AppContext{Version: "test", Config: config.Default()}))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var jpgs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "tinyimg-") && strings.HasSuffix(e.Name(), ".jpg") {
			jpgs = append(jpgs, e.Name())
		}
	}
	assert.Len(t, jpgs, 5)
	assert.Contains(t, jpgs, "tinyimg-a-0.jpg")

	zr, err := zip.OpenReader(filepath.Join(out, "tinyimg.zip"))
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 5)
}

func TestCompressNothingAdmitted(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0o644))
	out := filepath.Join(t.TempDir(), "out")

	cmd := &CompressCmd{Paths: []string{filepath.Join(in, "notes.txt")}, Out: out, NoTUI: true}
	require.NoError(t, cmd.Run(nil))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output directory for an empty batch")
}

func TestInspect(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "wide.png"), 80, 40)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0o644))

	cmd := &InspectCmd{}
	stats := cmd.inspect([]string{filepath.Join(in, "wide.png"), filepath.Join(in, "notes.txt"), filepath.Join(in, "missing.png")}, 1080)

	assert.Equal(t, 1, stats.Admitted)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Unreadable)
	assert.Greater(t, stats.TotalSize, int64(0))
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a, 64, 64)

	assert.NoError(t, (&CompareCmd{Original: a, Compressed: a, Threshold: 10}).Run())
	assert.Error(t, (&CompareCmd{Original: a, Compressed: filepath.Join(dir, "missing.png")}).Run())
}

func TestQuietLoggerDropsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	quiet := quietLogger(logger).With("run", 1)
	quiet.Info("compressed", "file", "a.png")
	assert.Empty(t, buf.String())

	quiet.Error("compression failed", "file", "b.png")
	assert.Contains(t, buf.String(), "compression failed")
	assert.Contains(t, buf.String(), "run=1")
}

func TestQuietLoggerKeepsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	assert.Same(t, logger, quietLogger(logger))
	assert.Nil(t, quietLogger(nil))
}
