// Package pdfinspect implements the PDF Inspector: it opens an input PDF,
// walks each page's content stream with an explicit CTM stack, and produces
// the PageInfo list every downstream component depends on without mutating
// the input.
//
// The content-stream interpreter is ported from OCRmyPDF's
// pdfinfo/_contentstream.py: same operator whitelist, same stack-depth
// limits, same unit-square heuristic, same DPI formula.
package pdfinspect

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/textlog"
)

// HardStackLimit is the CTM-stack depth at which interpretation fails for
// the page. SoftStackLimit only produces a warning.
const (
	HardStackLimit = 128
	SoftStackLimit = 32
)

// Inspect opens inputPath and returns PageInfo for every page. When
// detailed is true, it also runs the text-box layout pass. log may be nil.
func Inspect(inputPath string, detailed bool, log *textlog.Logger) ([]pdfmodel.PageInfo, error) {
	ctx, err := api.ReadContextFile(inputPath)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if ctx.XRefTable.Encrypt != nil {
		return nil, ocrerr.New(ocrerr.KindEncryptedPdf, "input PDF requires a password")
	}

	n := ctx.XRefTable.PageCount
	pages := make([]pdfmodel.PageInfo, 0, n)
	for i := 1; i <= n; i++ {
		pi, err := inspectPage(ctx.XRefTable, i, detailed, log)
		if err != nil {
			return nil, ocrerr.Wrap(ocrerr.KindInputFile, fmt.Sprintf("page %d", i), err)
		}
		pages = append(pages, pi)
	}
	return pages, nil
}

func classifyOpenError(err error) error {
	// pdfcpu reports password-required and structural-corruption conditions
	// through plain errors; string-sniff the two cases the spec calls out
	// distinctly since the library does not export sentinel error values
	// for them.
	msg := err.Error()
	if containsAny(msg, "password", "encrypt") {
		return ocrerr.Wrap(ocrerr.KindEncryptedPdf, "input PDF requires a password", err)
	}
	return ocrerr.Wrap(ocrerr.KindInputFile, "malformed input PDF", err)
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func inspectPage(xref *model.XRefTable, pageNo int, detailed bool, log *textlog.Logger) (pdfmodel.PageInfo, error) {
	pi := pdfmodel.PageInfo{PageIndex: pageNo - 1}

	d, _, inh, err := xref.PageDict(pageNo, false)
	if err != nil || d == nil {
		return pi, fmt.Errorf("page dict: %w", err)
	}

	mb, err := pageMediaBox(xref, d, inh)
	if err != nil {
		return pi, err
	}
	pi.MediaBox = mb

	pi.UserUnit = pageUserUnit(d, inh)
	pi.Rotation = pageRotation(d, inh)

	var pageLog *textlog.Logger
	if log != nil {
		pageLog = log.WithPage(pageNo - 1)
	}
	images, hasVector, hasText, textBoxes, err := interpretPageContent(xref, d, inh, pi.MediaBox, detailed, pageLog)
	if err != nil {
		return pi, err
	}
	pi.Images = images
	pi.HasVector = hasVector
	pi.HasText = hasText
	if detailed {
		pi.TextBoxes = textBoxes
	}
	return pi, nil
}
