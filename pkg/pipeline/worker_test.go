package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/raster"
)

func TestDeviceForPageDefaultsToMono(t *testing.T) {
	pi := pdfmodel.PageInfo{}
	assert.Equal(t, raster.DeviceMono1bpp, deviceForPage(pi))
}

func TestDeviceForPageEscalatesToGrayForGrayscaleImage(t *testing.T) {
	pi := pdfmodel.PageInfo{Images: []pdfmodel.ImageInfo{{Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceGray}}}}
	assert.Equal(t, raster.DeviceGray8bpp, deviceForPage(pi))
}

func TestDeviceForPageEscalatesToIndexed(t *testing.T) {
	pi := pdfmodel.PageInfo{Images: []pdfmodel.ImageInfo{{Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceIndexed}}}}
	assert.Equal(t, raster.DeviceIndexed8bpp, deviceForPage(pi))
}

func TestDeviceForPageEscalatesToFullColorForRGB(t *testing.T) {
	pi := pdfmodel.PageInfo{Images: []pdfmodel.ImageInfo{{Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceRGB}}}}
	assert.Equal(t, raster.DeviceRGB24bpp, deviceForPage(pi))
}

func TestDeviceForPageVectorContentForcesFullColor(t *testing.T) {
	pi := pdfmodel.PageInfo{HasVector: pdfmodel.HasVectorYes}
	assert.Equal(t, raster.DeviceRGB24bpp, deviceForPage(pi))
}

func TestDeviceForPageIgnoresStencilMasks(t *testing.T) {
	pi := pdfmodel.PageInfo{Images: []pdfmodel.ImageInfo{{Type: pdfmodel.ImageKindStencilMask, Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceRGB}}}}
	assert.Equal(t, raster.DeviceMono1bpp, deviceForPage(pi))
}

func TestDeviceForPageNeverDowngradesAcrossImages(t *testing.T) {
	pi := pdfmodel.PageInfo{Images: []pdfmodel.ImageInfo{
		{Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceRGB}},
		{Colorspace: pdfmodel.Colorspace{Kind: pdfmodel.ColorspaceGray}},
	}}
	assert.Equal(t, raster.DeviceRGB24bpp, deviceForPage(pi))
}

func TestFinalizeAlteredForcesReplacementWhenNotLossless(t *testing.T) {
	// A bare --force-ocr run (no deskew/clean-final/remove-background)
	// never flips altered through the preprocessing chain; the document's
	// lossless verdict must still force the visible layer replacement.
	assert.True(t, finalizeAltered(false, false))
}

func TestFinalizeAlteredLeavesPageUntouchedWhenLosslessAndUnaltered(t *testing.T) {
	assert.False(t, finalizeAltered(false, true))
}

func TestFinalizeAlteredKeepsAlteredTrueRegardlessOfLossless(t *testing.T) {
	assert.True(t, finalizeAltered(true, true))
	assert.True(t, finalizeAltered(true, false))
}
