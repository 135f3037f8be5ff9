package preprocess

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

func writeTestPNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func solidGray(w, h int, v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestGammaTRCClampsBelowBlack(t *testing.T) {
	assert.Equal(t, uint8(0), gammaTRC(50, 70, 190))
}

func TestGammaTRCClampsAboveWhite(t *testing.T) {
	assert.Equal(t, uint8(255), gammaTRC(200, 70, 190))
}

func TestGammaTRCLinearBetween(t *testing.T) {
	assert.Equal(t, uint8(128), gammaTRC(130, 70, 190))
}

func TestCleanArgsInjectionGuardRejectsSlash(t *testing.T) {
	assert.Error(t, CleanArgsInjectionGuard([]string{"--foo=/etc/passwd"}))
}

func TestCleanArgsInjectionGuardAllowsPlainFlags(t *testing.T) {
	assert.NoError(t, CleanArgsInjectionGuard([]string{"--no-blackfilter", "--deskew"}))
}

func TestPaintOCRMaskNoneCopiesThrough(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, solidGray(10, 10, 50))

	require.NoError(t, PaintOCRMask(src, dst, nil, MaskNone, 72, 72))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	want, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPaintOCRMaskPaintsWhiteOverVisibleBox(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, solidGray(72, 72, 0)) // 1in x 1in page at 72 DPI, all black

	boxes := []pdfmodel.TextBox{
		{Visible: true, BBox: pdfmodel.BBox{Left: 0, Right: 36, Top: 72, Bottom: 36}},
	}
	require.NoError(t, PaintOCRMask(src, dst, boxes, MaskRedo, 72, 72))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	r, _, _, _ = img.At(60, 60).RGBA()
	assert.NotEqual(t, uint32(0xffff), r)
}

func TestRemoveBackgroundPassesThroughMonoPages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, solidGray(4, 4, 100))

	require.NoError(t, RemoveBackground(src, dst, 1))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	want, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRemoveBackgroundAppliesGammaTRC(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, solidGray(4, 4, 30)) // below black threshold

	require.NoError(t, RemoveBackground(src, dst, 8))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y
	assert.Equal(t, uint8(0), g)
}

func TestRotateSmallAngleZeroIsIdentity(t *testing.T) {
	img := solidGray(4, 4, 77)
	rotated := rotateSmallAngle(img, 0)
	g := color.GrayModel.Convert(rotated.At(1, 1)).(color.Gray).Y
	assert.Equal(t, uint8(77), g)
}

func TestDeskewUniformImageWritesOutputAndReturnsAngle(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, solidGray(20, 20, 200))

	// A uniform page has no row-variance signal at any candidate angle, so
	// estimateSkewAngle's max-by-strict-> search settles on the first angle
	// scanned rather than 0; Deskew must still produce a valid output file.
	angle, err := Deskew(src, dst, 300)
	require.NoError(t, err)
	assert.Equal(t, -5.0, angle)

	_, err = os.Stat(dst)
	require.NoError(t, err)
}
