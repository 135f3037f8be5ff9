package weave

import (
	"fmt"
	"math"

	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

// ComputeTextTransform computes the matrix that places an upright
// (rotation-corrected) text-layer page onto a base page whose content may
// be misaligned from it by textMisalignedDeg (the difference between the
// orientation correction applied to the text layer and the content's
// effective rotation, taken clockwise, mod 360).
//
// The sequence — translate to center, rotate there, rescale for any DPI
// rounding drift between the two pages' sizes, then untranslate to the
// base page's center — mirrors OCRmyPDF's _weave_layers_graft exactly.
func ComputeTextTransform(textMisalignedDeg int, textWidthPt, textHeightPt, baseWidthPt, baseHeightPt float64) pdfmodel.CTM {
	wt, ht := textWidthPt, textHeightPt
	wp, hp := baseWidthPt, baseHeightPt

	// -rotation because the input is a clockwise angle and PDF matrix
	// rotation below is defined counterclockwise.
	rotation := normMod(-textMisalignedDeg, 360)

	if rotation == 90 || rotation == 270 {
		wt, ht = ht, wt
	}

	t1 := translateCTM(-wt/2, -ht/2)
	r := rotateCTM(float64(rotation))
	s := scaleCTM(wp/wt, hp/ht)
	t2 := translateCTM(wp/2, hp/2)

	// r.Multiply(t1) == t1 composed with r (t1 applied first); chain through
	// s and t2 the same way to get t1*r*s*t2 applied left to right.
	step1 := r.Multiply(t1)
	step2 := s.Multiply(step1)
	return t2.Multiply(step2)
}

func translateCTM(tx, ty float64) pdfmodel.CTM { return pdfmodel.CTM{A: 1, D: 1, E: tx, F: ty} }

func rotateCTM(deg float64) pdfmodel.CTM {
	theta := deg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	return pdfmodel.CTM{A: cos, B: sin, C: -sin, D: cos}
}

func scaleCTM(sx, sy float64) pdfmodel.CTM { return pdfmodel.CTM{A: sx, D: sy} }

func normMod(n, m int) int {
	n %= m
	if n < 0 {
		n += m
	}
	return n
}

// EncodeCTM renders a CTM as the six space-separated operands a `cm`
// operator expects.
func EncodeCTM(m pdfmodel.CTM) string {
	return fmt.Sprintf("%.6f %.6f %.6f %.6f %.6f %.6f", m.A, m.B, m.C, m.D, m.E, m.F)
}

// WrapTextContent wraps a text-layer content stream in `q <cm> ... Q` so it
// is applied through the computed transform without disturbing the base
// page's own graphics state.
func WrapTextContent(content []byte, ctm pdfmodel.CTM) []byte {
	prefix := []byte("q " + EncodeCTM(ctm) + " cm\n")
	suffix := []byte("\nQ\n")
	out := make([]byte, 0, len(prefix)+len(content)+len(suffix))
	out = append(out, prefix...)
	out = append(out, content...)
	out = append(out, suffix...)
	return out
}
