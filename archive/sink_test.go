package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSinkDeliver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := DirSink{Dir: dir}

	path, err := sink.Deliver("tinyimg.zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tinyimg.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
}

func TestDirSinkNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink := DirSink{Dir: dir}

	first, err := sink.Deliver("a.jpg", []byte("1"))
	require.NoError(t, err)
	second, err := sink.Deliver("a.jpg", []byte("2"))
	require.NoError(t, err)
	third, err := sink.Deliver("a.jpg", []byte("3"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "a-1.jpg"), second)
	assert.Equal(t, filepath.Join(dir, "a-2.jpg"), third)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestDirSinkStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	path, err := DirSink{Dir: dir}.Deliver("../escape.jpg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.jpg"), path)
}

func TestDirSinkLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := DirSink{Dir: dir}.Deliver("a.jpg", []byte("x"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.jpg", entries[0].Name())
}
