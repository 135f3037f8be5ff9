// Package textlayer implements the Text-Layer Renderer: it converts one
// page's hOCR recognition result into a single-page PDF containing only
// invisible, correctly positioned glyphs ("ocr_page" sized to match the
// rasterized preview), for pkg/weave to place over the original page.
package textlayer

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/textgraft/textgraft/pkg/hocr"
)

// FontConfig controls the glyphless font used to draw recognized words.
type FontConfig struct {
	Name        string
	Style       string
	Size        float64
	AscentRatio float64
}

// DefaultFont matches the metrics OCRmyPDF's sandwich renderer assumes for
// its Latin-bundled glyphless font.
var DefaultFont = FontConfig{Name: "Helvetica", Style: "", Size: 10, AscentRatio: 0.718}

// DefaultLayerName is the optional-content-group name every page's text
// layer is placed under; formatted per page as "OCR Text (Page N)".
const DefaultLayerName = "OCR Text"

// Options controls one page's render.
type Options struct {
	Debug     bool   // draw visible red text and word boxes instead of invisible glyphs
	LayerName string // optional chamber/OCG layer name; empty disables layering
	PageNum   int    // 1-based, used only to qualify LayerName
	Font      FontConfig
}

// Render converts a single hOCR page into a standalone PDF whose page size
// matches the hOCR page's bbox, in points. The returned PDF has exactly one
// page positioned at the origin; pkg/weave is responsible for placing it
// onto the target page via its own transform.
func Render(page hocr.Page, opts Options) ([]byte, error) {
	if opts.Font == (FontConfig{}) {
		opts.Font = DefaultFont
	}

	w, h := page.BBox.Width(), page.BBox.Height()
	pdf := fpdf.New("P", "pt", "", "")
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	transform := func(x, y float64) (float64, float64) {
		return x - page.BBox.X1, y - page.BBox.Y1
	}

	if err := drawLayer(pdf, page, opts, transform); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render text layer: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLayer(pdf *fpdf.Fpdf, page hocr.Page, opts Options, transform func(x, y float64) (float64, float64)) error {
	var layer int
	layered := opts.LayerName != ""
	if layered {
		name := opts.LayerName
		if opts.PageNum > 0 {
			name = fmt.Sprintf("%s (Page %d)", opts.LayerName, opts.PageNum)
		}
		layer = pdf.AddLayer(name, true)
		pdf.BeginLayer(layer)
	}

	pdf.SetFont(opts.Font.Name, opts.Font.Style, opts.Font.Size)
	if opts.Debug {
		pdf.SetTextColor(255, 0, 0)
	} else {
		// Tr 3 (invisible) rather than alpha transparency: pkg/weave's
		// StripInvisibleText recognizes a prior OCR pass's text only by its
		// render mode, not by opacity, so a subsequent --redo-ocr run can
		// strip it before grafting fresh text.
		pdf.SetTextRenderingMode(3)
	}

	encodingErrors := 0
	wordCount := 0
	visit := func(w hocr.Word) {
		drawWord(pdf, w, transform, opts.Font, opts.Debug, &encodingErrors)
		wordCount++
	}
	walkWords(page, visit)

	if layered {
		pdf.EndLayer()
	}

	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", encodingErrors, wordCount)
	}
	return nil
}

// walkWords visits every Word in a Page regardless of how deeply it is
// nested under Areas/Paragraphs/Lines, mirroring the hOCR hierarchy's
// several valid nesting shapes.
func walkWords(page hocr.Page, visit func(hocr.Word)) {
	for _, area := range page.Areas {
		for _, w := range area.Words {
			visit(w)
		}
		for _, l := range area.Lines {
			for _, w := range l.Words {
				visit(w)
			}
		}
		for _, p := range area.Paragraphs {
			for _, w := range p.Words {
				visit(w)
			}
			for _, l := range p.Lines {
				for _, w := range l.Words {
					visit(w)
				}
			}
		}
	}
	for _, p := range page.Paragraphs {
		for _, w := range p.Words {
			visit(w)
		}
		for _, l := range p.Lines {
			for _, w := range l.Words {
				visit(w)
			}
		}
	}
	for _, l := range page.Lines {
		for _, w := range l.Words {
			visit(w)
		}
	}
}

func drawWord(pdf *fpdf.Fpdf, word hocr.Word, transform func(x, y float64) (float64, float64), font FontConfig, debug bool, encodingErrors *int) {
	x, y := transform(word.BBox.X1, word.BBox.Y1)
	x2, _ := transform(word.BBox.X2, word.BBox.Y1)
	wordWidth := x2 - x

	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		*encodingErrors++
		latin1 = word.Text
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(font.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	y += fontSize * font.AscentRatio

	pdf.Text(x, y, latin1)
	pdf.SetFontSize(font.Size)

	if debug {
		height := word.BBox.Height()
		pdf.Rect(x, y-(fontSize*font.AscentRatio), wordWidth, height, "D")
	}
}
