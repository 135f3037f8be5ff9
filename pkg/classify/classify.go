// Package classify implements the Page Classifier: given a page's
// inspected state and the user's OCR mode, decide what (if anything) that
// page's worker should do.
package classify

import "github.com/textgraft/textgraft/pkg/pdfmodel"

// Options carries the classifier's document-wide inputs, computed once at
// startup.
type Options struct {
	Mode                  pdfmodel.PageMode
	PageFilter            map[int]bool // nil means "all pages selected"
	SkipBigMegapixels      float64      // 0 disables the skip-big override
	LosslessReconstruction bool
}

// Classify decides the PageDecision for one page.
func Classify(pi pdfmodel.PageInfo, opts Options) pdfmodel.PageDecision {
	if opts.PageFilter != nil && !opts.PageFilter[pi.PageIndex+1] {
		return pdfmodel.PageDecision{Mode: pdfmodel.DecisionSkip, Reason: "not selected"}
	}

	decision := classifyByText(pi, opts)
	return applySkipBig(pi, decision, opts)
}

func classifyByText(pi pdfmodel.PageInfo, opts Options) pdfmodel.PageDecision {
	switch pi.HasText {
	case pdfmodel.HasTextYes:
		switch opts.Mode {
		case pdfmodel.ModeNormal:
			// Signalled via a sentinel decision the caller must turn into
			// PriorOcrFound; the classifier itself carries no error type.
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionSkip, Reason: "prior-ocr-found"}
		case pdfmodel.ModeSkipText:
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionSkip, Reason: "skip-text requested"}
		case pdfmodel.ModeForceOCR:
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionOCRForce, Reason: "force-ocr over existing text"}
		case pdfmodel.ModeRedoOCR:
			reason := "redo-ocr over existing text"
			if hasCorruptTextBox(pi) {
				reason += " (corrupt glyphs found; consider --force-ocr)"
			}
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionOCRRedo, Reason: reason}
		}
	default:
		if len(pi.Images) == 0 && !opts.LosslessReconstruction {
			if opts.Mode == pdfmodel.ModeForceOCR {
				return pdfmodel.PageDecision{Mode: pdfmodel.DecisionOCRForce, Reason: "force-ocr on vector-only page", OversampleVector: true}
			}
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionSkip, Reason: "vector-only page not OCRed by default"}
		}
	}
	return pdfmodel.PageDecision{Mode: pdfmodel.DecisionOCRNew, Reason: "normal OCR"}
}

func hasCorruptTextBox(pi pdfmodel.PageInfo) bool {
	for _, tb := range pi.TextBoxes {
		if tb.Corrupt {
			return true
		}
	}
	return false
}

func applySkipBig(pi pdfmodel.PageInfo, decision pdfmodel.PageDecision, opts Options) pdfmodel.PageDecision {
	if opts.SkipBigMegapixels <= 0 {
		return decision
	}
	if decision.Mode == pdfmodel.DecisionSkip {
		return decision
	}
	threshold := opts.SkipBigMegapixels * 1_000_000
	for _, img := range pi.Images {
		if float64(img.Width)*float64(img.Height) > threshold {
			return pdfmodel.PageDecision{Mode: pdfmodel.DecisionSkip, Reason: "too big"}
		}
	}
	return decision
}

// ComputeLosslessReconstruction implements the "none of the pixel-altering
// options enabled" rule.
func ComputeLosslessReconstruction(deskew, cleanFinal, forceOCR, removeBackground bool) bool {
	return !deskew && !cleanFinal && !forceOCR && !removeBackground
}
