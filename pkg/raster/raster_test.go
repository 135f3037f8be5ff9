package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markedImage builds a w x h image where each pixel's gray value encodes its
// (x, y) coordinate, so a rotation's effect on any given pixel is checkable.
func markedImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y*w + x)})
		}
	}
	return img
}

func grayAt(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestRotateCounterclockwiseZeroIsIdentity(t *testing.T) {
	img := markedImage(2, 3)
	out := rotateCounterclockwise(img, 0)
	assert.Equal(t, image.Rect(0, 0, 2, 3), out.Bounds())
	assert.Equal(t, grayAt(img, 1, 2), grayAt(out, 1, 2))
}

func TestRotateCounterclockwise90SwapsDimensions(t *testing.T) {
	img := markedImage(2, 3) // w=2, h=3
	out := rotateCounterclockwise(img, 90)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	// source(x,y) -> out(y, w-1-x): top-left source(0,0) lands at out(0, w-1).
	assert.Equal(t, grayAt(img, 0, 0), grayAt(out, 0, 1))
}

func TestRotateCounterclockwise180FlipsBothAxes(t *testing.T) {
	img := markedImage(2, 3)
	out := rotateCounterclockwise(img, 180)
	assert.Equal(t, image.Rect(0, 0, 2, 3), out.Bounds())
	assert.Equal(t, grayAt(img, 0, 0), grayAt(out, 1, 2))
}

func TestRotateCounterclockwise270SwapsDimensions(t *testing.T) {
	img := markedImage(2, 3)
	out := rotateCounterclockwise(img, 270)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
}

func TestWritePNGWithDPIProducesDecodableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	img := markedImage(4, 4)

	require.NoError(t, writePNGWithDPI(path, img, 300, 300))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
