package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

func page(hasText pdfmodel.HasText, images int) pdfmodel.PageInfo {
	pi := pdfmodel.PageInfo{HasText: hasText}
	for i := 0; i < images; i++ {
		pi.Images = append(pi.Images, pdfmodel.ImageInfo{Width: 100, Height: 100})
	}
	return pi
}

func TestClassifyNormalModeWithExistingTextIsPriorOcrFound(t *testing.T) {
	d := Classify(page(pdfmodel.HasTextYes, 1), Options{Mode: pdfmodel.ModeNormal})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
	assert.Equal(t, "prior-ocr-found", d.Reason)
}

func TestClassifySkipTextModeSkipsExistingText(t *testing.T) {
	d := Classify(page(pdfmodel.HasTextYes, 1), Options{Mode: pdfmodel.ModeSkipText})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
}

func TestClassifyForceOCROverridesExistingText(t *testing.T) {
	d := Classify(page(pdfmodel.HasTextYes, 1), Options{Mode: pdfmodel.ModeForceOCR})
	assert.Equal(t, pdfmodel.DecisionOCRForce, d.Mode)
}

func TestClassifyRedoOCRFlagsCorruptGlyphs(t *testing.T) {
	pi := page(pdfmodel.HasTextYes, 1)
	pi.TextBoxes = []pdfmodel.TextBox{{Corrupt: true}}
	d := Classify(pi, Options{Mode: pdfmodel.ModeRedoOCR})
	assert.Equal(t, pdfmodel.DecisionOCRRedo, d.Mode)
	assert.Contains(t, d.Reason, "force-ocr")
}

func TestClassifyVectorOnlyPageSkippedByDefault(t *testing.T) {
	pi := pdfmodel.PageInfo{HasText: pdfmodel.HasTextNo, HasVector: pdfmodel.HasVectorYes}
	d := Classify(pi, Options{Mode: pdfmodel.ModeNormal})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
}

func TestClassifyVectorOnlyPageForceOCRSetsOversample(t *testing.T) {
	pi := pdfmodel.PageInfo{HasText: pdfmodel.HasTextNo, HasVector: pdfmodel.HasVectorYes}
	d := Classify(pi, Options{Mode: pdfmodel.ModeForceOCR})
	assert.Equal(t, pdfmodel.DecisionOCRForce, d.Mode)
	assert.True(t, d.OversampleVector)
}

func TestClassifyNormalPageWithImagesIsOCRNew(t *testing.T) {
	d := Classify(page(pdfmodel.HasTextNo, 1), Options{Mode: pdfmodel.ModeNormal})
	assert.Equal(t, pdfmodel.DecisionOCRNew, d.Mode)
}

func TestClassifyPageFilterExcludesUnselectedPages(t *testing.T) {
	pi := page(pdfmodel.HasTextNo, 1)
	pi.PageIndex = 4
	d := Classify(pi, Options{Mode: pdfmodel.ModeNormal, PageFilter: map[int]bool{1: true}})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
}

func TestClassifySkipBigMegapixelsOverridesOCRDecision(t *testing.T) {
	pi := pdfmodel.PageInfo{HasText: pdfmodel.HasTextNo, Images: []pdfmodel.ImageInfo{{Width: 10000, Height: 10000}}}
	d := Classify(pi, Options{Mode: pdfmodel.ModeNormal, SkipBigMegapixels: 1})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
	assert.Equal(t, "too big", d.Reason)
}

func TestClassifySkipBigDoesNotOverrideAlreadySkippedPage(t *testing.T) {
	pi := pdfmodel.PageInfo{HasText: pdfmodel.HasTextNo}
	d := Classify(pi, Options{Mode: pdfmodel.ModeNormal, SkipBigMegapixels: 1})
	assert.Equal(t, pdfmodel.DecisionSkip, d.Mode)
	assert.NotEqual(t, "too big", d.Reason)
}

func TestComputeLosslessReconstruction(t *testing.T) {
	assert.True(t, ComputeLosslessReconstruction(false, false, false, false))
	assert.False(t, ComputeLosslessReconstruction(true, false, false, false))
	assert.False(t, ComputeLosslessReconstruction(false, false, true, false))
}
