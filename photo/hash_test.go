package photo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerceptualDistanceIdentical(t *testing.T) {
	img := pngBytes(t, 64, 64)
	d, err := PerceptualDistance(img, img)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}

func TestPerceptualDistanceAcrossFormats(t *testing.T) {
	original := encodePNG(t, blocks(64, 64, false))

	same, err := PerceptualDistance(original, encodeTestJPEG(t, blocks(64, 64, false), 90))
	require.NoError(t, err)
	assert.LessOrEqual(t, same, 10)

	other, err := PerceptualDistance(original, encodeTestJPEG(t, blocks(64, 64, true), 90))
	require.NoError(t, err)
	assert.Less(t, same, other, "a re-encode should be closer than a different image")
}

func TestPerceptualDistanceInvalid(t *testing.T) {
	_, err := PerceptualDistance([]byte("x"), pngBytes(t, 8, 8))
	assert.Error(t, err)
}
