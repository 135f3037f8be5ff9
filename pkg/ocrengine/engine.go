// Package ocrengine defines the OCR Adapter contract and its two
// implementations: a local tesseract subprocess and Google Document AI.
package ocrengine

import (
	"context"
	"time"
)

// Renderer selects which of the two OCR Adapter output modes a page uses.
type Renderer int

const (
	RendererSandwich Renderer = iota // text-only PDF produced directly by the engine
	RendererHOCR                     // hOCR XML, converted to PDF by pkg/textlayer
)

// Request carries one page's OCR inputs.
type Request struct {
	ImagePath   string
	Languages   []string
	PageSegMode int
	OEM         int
	TessConfigs []string
	Timeout     time.Duration
	Renderer    Renderer
	PageWidthPt  float64
	PageHeightPt float64
}

// Result is the OCR Adapter's output for one page. The tesseract engine
// sets HOCRPath or TextPDFPath according to the requested Renderer; the
// Document AI engine always sets HOCRPath, whatever the Renderer. Skipped is true
// when the engine timed out or declined the page ("image too large" /
// "too few characters") — a recoverable condition the caller turns into a
// blank page or null hOCR rather than a pipeline failure.
type Result struct {
	HOCRPath    string
	TextPDFPath string
	SidecarText string
	Skipped     bool
	SkipReason  string
}

// Engine is the OCR Adapter contract. Implementations must treat timeout
// and page-too-large conditions as a Result with Skipped=true, not an
// error; only genuine misconfiguration (e.g. an unknown tessconfig) should
// return an error.
type Engine interface {
	Run(ctx context.Context, req Request) (Result, error)
}
