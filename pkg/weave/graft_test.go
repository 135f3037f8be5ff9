package weave

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

func TestNormMod(t *testing.T) {
	assert.Equal(t, 90, normMod(90, 360))
	assert.Equal(t, 270, normMod(-90, 360))
	assert.Equal(t, 0, normMod(360, 360))
	assert.Equal(t, 0, normMod(0, 360))
}

func TestComputeTextTransformIdentityWhenAligned(t *testing.T) {
	ctm := ComputeTextTransform(0, 612, 792, 612, 792)
	assert.InDelta(t, 1, ctm.A, 1e-9)
	assert.InDelta(t, 0, ctm.B, 1e-9)
	assert.InDelta(t, 0, ctm.C, 1e-9)
	assert.InDelta(t, 1, ctm.D, 1e-9)
	assert.InDelta(t, 0, ctm.E, 1e-6)
	assert.InDelta(t, 0, ctm.F, 1e-6)
}

func TestComputeTextTransformSwapsDimsOnQuarterTurn(t *testing.T) {
	// A 90-degree misalignment with a base page rotated into portrait from
	// a landscape text layer should still map onto the base page's center
	// without distortion when both pages are otherwise the same size.
	ctm := ComputeTextTransform(90, 792, 612, 612, 792)
	assert.InDelta(t, 1, ctm.A*ctm.D-ctm.B*ctm.C, 1e-6) // determinant 1: pure rotation, no skew
}

func TestTextMisalignmentDegUsesOrientationCorrectionWhenReplacing(t *testing.T) {
	layer := PageLayer{
		VisibleImagePDF:       "page.image.pdf",
		OrientationCorrection: 90,
		Info:                  pdfmodel.PageInfo{Rotation: 180},
	}
	assert.Equal(t, 90, textMisalignmentDeg(layer))
}

func TestTextMisalignmentDegSubtractsBaseRotationWhenNotReplacing(t *testing.T) {
	layer := PageLayer{
		OrientationCorrection: 90,
		Info:                  pdfmodel.PageInfo{Rotation: 180},
	}
	assert.Equal(t, 270, textMisalignmentDeg(layer))
}

func TestEncodeCTMFormatsSixOperands(t *testing.T) {
	got := EncodeCTM(pdfmodel.CTM{A: 1, B: 0, C: 0, D: 1, E: 2.5, F: -3.25})
	assert.Equal(t, "1.000000 0.000000 0.000000 1.000000 2.500000 -3.250000", got)
}

func TestWrapTextContentAddsQCmQ(t *testing.T) {
	ctm := pdfmodel.CTM{A: 1, D: 1}
	wrapped := string(WrapTextContent([]byte("BT /F1 12 Tf (hi) Tj ET"), ctm))
	assert.Contains(t, wrapped, "q 1.000000 0.000000 0.000000 1.000000 0.000000 0.000000 cm")
	assert.Contains(t, wrapped, "BT /F1 12 Tf (hi) Tj ET")
	assert.Contains(t, wrapped, "\nQ\n")
}
