// Package pdfmodel defines the shared data model produced by the Inspector
// and consumed by every downstream stage of the page-processing pipeline:
// per-page geometry, image inventory, and the classifier/worker outputs that
// flow through the executor.
package pdfmodel

import "fmt"

// HasText is a tri-state answer to "does this page already carry a text
// layer", modeled as a sum type rather than a nullable bool so "we never
// checked" is distinguishable from "we checked and found none".
type HasText int

const (
	HasTextUnknown HasText = iota
	HasTextNo
	HasTextYes
)

func (h HasText) String() string {
	switch h {
	case HasTextNo:
		return "no"
	case HasTextYes:
		return "yes"
	default:
		return "unknown"
	}
}

// HasVector is the vector-marks analogue of HasText.
type HasVector int

const (
	HasVectorUnknown HasVector = iota
	HasVectorNo
	HasVectorYes
)

func (h HasVector) String() string {
	switch h {
	case HasVectorNo:
		return "no"
	case HasVectorYes:
		return "yes"
	default:
		return "unknown"
	}
}

// Colorspace is a tagged variant over the PDF colorspace families an image
// resource may declare. Unknown carries the raw PDF name so nothing is
// silently collapsed to a sentinel scalar.
type Colorspace struct {
	Kind       ColorspaceKind
	Components int    // meaningful for KindICC
	Unknown    string // meaningful for KindUnknown
}

type ColorspaceKind int

const (
	ColorspaceGray ColorspaceKind = iota
	ColorspaceRGB
	ColorspaceCMYK
	ColorspaceLab
	ColorspaceICC
	ColorspaceIndexed
	ColorspaceSeparation
	ColorspaceDeviceN
	ColorspacePattern
	ColorspaceJPEG2000
	ColorspaceUnknown
)

func (c Colorspace) String() string {
	switch c.Kind {
	case ColorspaceGray:
		return "gray"
	case ColorspaceRGB:
		return "rgb"
	case ColorspaceCMYK:
		return "cmyk"
	case ColorspaceLab:
		return "lab"
	case ColorspaceICC:
		return fmt.Sprintf("icc(%d)", c.Components)
	case ColorspaceIndexed:
		return "indexed"
	case ColorspaceSeparation:
		return "separation"
	case ColorspaceDeviceN:
		return "devicen"
	case ColorspacePattern:
		return "pattern"
	case ColorspaceJPEG2000:
		return "jpeg2000"
	default:
		return "unknown(" + c.Unknown + ")"
	}
}

// Encoding is a tagged variant over the image-stream filter chain.
type Encoding struct {
	Kind    EncodingKind
	Unknown string // meaningful for KindUnknown, carries the raw filter name
}

type EncodingKind int

const (
	EncodingCCITT EncodingKind = iota
	EncodingJPEG
	EncodingJPEG2000
	EncodingJBIG2
	EncodingFlate
	EncodingLZW
	EncodingASCIIHex
	EncodingASCII85
	EncodingRunLength
	EncodingNone
	EncodingUnknown
)

func (e Encoding) String() string {
	switch e.Kind {
	case EncodingCCITT:
		return "ccitt"
	case EncodingJPEG:
		return "jpeg"
	case EncodingJPEG2000:
		return "jpeg2000"
	case EncodingJBIG2:
		return "jbig2"
	case EncodingFlate:
		return "flate"
	case EncodingLZW:
		return "lzw"
	case EncodingASCIIHex:
		return "asciihex"
	case EncodingASCII85:
		return "ascii85"
	case EncodingRunLength:
		return "runlength"
	case EncodingNone:
		return "none"
	default:
		return "unknown(" + e.Unknown + ")"
	}
}

// ImageKind distinguishes a normal image XObject from a stencil mask.
type ImageKind int

const (
	ImageKindImage ImageKind = iota
	ImageKindStencilMask
)

// CTM is the six-number PDF shorthand transformation matrix (a,b,c,d,e,f).
type CTM struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() CTM {
	return CTM{A: 1, D: 1}
}

// Multiply computes m composed with n as PDF defines it for `cm`: the new
// CTM is the concatenation of n onto m, i.e. result = n * m in matrix terms
// where points are row vectors multiplied on the right.
func (m CTM) Multiply(n CTM) CTM {
	return CTM{
		A: n.A*m.A + n.B*m.C,
		B: n.A*m.B + n.B*m.D,
		C: n.C*m.A + n.D*m.C,
		D: n.C*m.B + n.D*m.D,
		E: n.E*m.A + n.F*m.C + m.E,
		F: n.E*m.B + n.F*m.D + m.F,
	}
}

// ImageInfo describes one raster image resource as drawn on a page.
type ImageInfo struct {
	Name             string
	Type             ImageKind
	Width, Height    int
	BitsPerComponent int
	Colorspace       Colorspace
	Encoding         Encoding
	ShorthandCTM     CTM
	DPIX, DPIY       float64
	// DPIExcluded marks an image drawn at CTM-stack depth 0 with an
	// identity-ish CTM: the unit-square heuristic excludes it from the
	// page's DPI-planning max.
	DPIExcluded bool
}

// TextBox is one word/glyph-run region produced by detailed layout analysis.
type TextBox struct {
	BBox    BBox
	Visible bool
	Corrupt bool
}

// BBox is an axis-aligned rectangle in PDF points, (0,0) at bottom-left.
type BBox struct {
	Left, Bottom, Right, Top float64
}

// PageInfo is the Inspector's output for a single input page.
type PageInfo struct {
	PageIndex  int
	MediaBox   BBox
	UserUnit   float64
	Rotation   int // one of {0, 90, 180, 270}
	HasText    HasText
	HasVector  HasVector
	Images     []ImageInfo
	TextBoxes  []TextBox // only populated when detailed analysis requested
}

// WidthPt and HeightPt return the page's dimensions in PDF points, taking
// rotation into account (a 90/270-rotated page reports swapped axes).
func (p PageInfo) WidthPt() float64 {
	w := p.MediaBox.Right - p.MediaBox.Left
	h := p.MediaBox.Top - p.MediaBox.Bottom
	if p.Rotation == 90 || p.Rotation == 270 {
		return h
	}
	return w
}

func (p PageInfo) HeightPt() float64 {
	w := p.MediaBox.Right - p.MediaBox.Left
	h := p.MediaBox.Top - p.MediaBox.Bottom
	if p.Rotation == 90 || p.Rotation == 270 {
		return w
	}
	return h
}

// PageMode is the user-selected OCR mode for the whole document.
type PageMode int

const (
	ModeNormal PageMode = iota
	ModeForceOCR
	ModeSkipText
	ModeRedoOCR
)

// DecisionMode is the per-page outcome of the Classifier.
type DecisionMode int

const (
	DecisionSkip DecisionMode = iota
	DecisionOCRNew
	DecisionOCRForce
	DecisionOCRRedo
)

func (d DecisionMode) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionOCRNew:
		return "ocr-new"
	case DecisionOCRForce:
		return "ocr-force"
	case DecisionOCRRedo:
		return "ocr-redo"
	default:
		return "unknown"
	}
}

// PageDecision is the Classifier's output for one page.
type PageDecision struct {
	Mode             DecisionMode
	Reason           string
	OversampleVector bool
}

// PageWorkResult is produced by exactly one worker per page and consumed by
// the Weaver strictly in page order.
type PageWorkResult struct {
	PageIndex             int
	VisibleImagePDF        string // path; empty when lossless reconstruction applies
	TextLayerPDF           string // path; empty on skipped pages
	SidecarTextPath        string // path, or a sentinel for skipped pages
	OrientationCorrection  int    // clockwise degrees applied during rasterization
	Skipped                bool
}

// SkippedSidecarText is the format of the sentinel text recorded for a page
// where no OCR call was made; %d is the 1-based page number (the same
// format as pkg/sidecar's SkippedPageText).
const SkippedSidecarText = "[OCR skipped on page %d]"
