// Package tesseract implements ocrengine.Engine against a local tesseract
// binary, invoked as a subprocess once per page.
package tesseract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/textgraft/textgraft/pkg/hocr"
	"github.com/textgraft/textgraft/pkg/ocrengine"
	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/textlog"
)

// Engine drives a local tesseract binary.
type Engine struct {
	TesseractPath string
	WorkDir       string
	Log           *textlog.Logger
}

// New builds an Engine. tesseractPath is looked up on PATH if empty.
func New(tesseractPath, workDir string, log *textlog.Logger) *Engine {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	return &Engine{TesseractPath: tesseractPath, WorkDir: workDir, Log: log}
}

func (e *Engine) baseArgs(req ocrengine.Request) []string {
	var args []string
	if len(req.Languages) > 0 {
		args = append(args, "-l", strings.Join(req.Languages, "+"))
	}
	if req.OEM >= 0 {
		args = append(args, "--oem", strconv.Itoa(req.OEM))
	}
	return args
}

// Run executes one page's OCR request.
func (e *Engine) Run(ctx context.Context, req ocrengine.Request) (ocrengine.Result, error) {
	switch req.Renderer {
	case ocrengine.RendererHOCR:
		return e.runHOCR(ctx, req)
	default:
		return e.runSandwich(ctx, req)
	}
}

func (e *Engine) runHOCR(ctx context.Context, req ocrengine.Request) (ocrengine.Result, error) {
	prefix := filepath.Join(e.WorkDir, pagePrefix(req.ImagePath))
	args := e.baseArgs(req)
	if req.PageSegMode >= 0 {
		args = append(args, "--psm", strconv.Itoa(req.PageSegMode))
	}
	args = append(args, req.ImagePath, prefix, "hocr", "txt")
	args = append(args, req.TessConfigs...)

	out, runErr, timedOut := runTesseract(ctx, e.TesseractPath, args, req.Timeout)
	e.logOutput(out, req.ImagePath)

	hocrPath := prefix + ".hocr"
	sidecarPath := prefix + ".txt"

	if timedOut {
		if err := writeNullHOCR(hocrPath, sidecarPath, req.PageWidthPt, req.PageHeightPt); err != nil {
			return ocrengine.Result{}, err
		}
		return ocrengine.Result{HOCRPath: hocrPath, SidecarText: sidecarPath, Skipped: true, SkipReason: "timeout"}, nil
	}
	if runErr != nil {
		if strings.Contains(string(out), "Image too large") {
			if err := writeNullHOCR(hocrPath, sidecarPath, req.PageWidthPt, req.PageHeightPt); err != nil {
				return ocrengine.Result{}, err
			}
			return ocrengine.Result{HOCRPath: hocrPath, SidecarText: sidecarPath, Skipped: true, SkipReason: "image too large"}, nil
		}
		if cfgErr := configError(string(out)); cfgErr != "" {
			return ocrengine.Result{}, ocrerr.New(ocrerr.KindTesseractConfig, cfgErr)
		}
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindSubprocessOutput, "tesseract hocr failed", runErr)
	}
	return ocrengine.Result{HOCRPath: hocrPath, SidecarText: sidecarPath}, nil
}

func (e *Engine) runSandwich(ctx context.Context, req ocrengine.Request) (ocrengine.Result, error) {
	prefix := filepath.Join(e.WorkDir, pagePrefix(req.ImagePath))
	args := e.baseArgs(req)
	if req.PageSegMode >= 0 {
		args = append(args, "--psm", strconv.Itoa(req.PageSegMode))
	}
	args = append(args, "-c", "textonly_pdf=1")
	args = append(args, req.ImagePath, prefix, "pdf", "txt")
	args = append(args, req.TessConfigs...)

	out, runErr, timedOut := runTesseract(ctx, e.TesseractPath, args, req.Timeout)
	e.logOutput(out, req.ImagePath)

	pdfPath := prefix + ".pdf"
	sidecarPath := prefix + ".txt"

	if timedOut {
		if err := writeSkippedSidecar(sidecarPath); err != nil {
			return ocrengine.Result{}, err
		}
		if err := writeBlankPDF(pdfPath, req.PageWidthPt, req.PageHeightPt); err != nil {
			return ocrengine.Result{}, err
		}
		return ocrengine.Result{TextPDFPath: pdfPath, SidecarText: sidecarPath, Skipped: true, SkipReason: "timeout"}, nil
	}
	if runErr != nil {
		if strings.Contains(string(out), "Image too large") {
			if err := writeSkippedSidecar(sidecarPath); err != nil {
				return ocrengine.Result{}, err
			}
			if err := writeBlankPDF(pdfPath, req.PageWidthPt, req.PageHeightPt); err != nil {
				return ocrengine.Result{}, err
			}
			return ocrengine.Result{TextPDFPath: pdfPath, SidecarText: sidecarPath, Skipped: true, SkipReason: "image too large"}, nil
		}
		if cfgErr := configError(string(out)); cfgErr != "" {
			return ocrengine.Result{}, ocrerr.New(ocrerr.KindTesseractConfig, cfgErr)
		}
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindSubprocessOutput, "tesseract pdf failed", runErr)
	}
	return ocrengine.Result{TextPDFPath: pdfPath, SidecarText: sidecarPath}, nil
}

// configError scans tesseract stderr for "parameter not found: X", the
// signal OCRmyPDF treats as a fatal TesseractConfigError rather than a
// recoverable skip.
func configError(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(strings.ToLower(line), "parameter not found: "); idx >= 0 {
			return strings.TrimSpace(line[idx+len("parameter not found: "):])
		}
	}
	return ""
}

func pagePrefix(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeSkippedSidecar(path string) error {
	if err := os.WriteFile(path, []byte("[skipped page]"), 0o644); err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write skipped sidecar", err)
	}
	return nil
}

// writeBlankPDF substitutes a zero-byte placeholder for a timed-out page's
// text-only PDF; pkg/weave treats a missing/empty text-layer PDF as "no
// text layer to place" for this page.
func writeBlankPDF(path string, _, _ float64) error {
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write blank pdf placeholder", err)
	}
	return nil
}

// writeNullHOCR produces an hOCR document reporting zero recognized words,
// sized to the page, so pkg/textlayer has a well-formed document to render
// from timed-out/oversized pages.
func writeNullHOCR(hocrPath, sidecarPath string, pageWidthPt, pageHeightPt float64) error {
	doc := hocr.HOCR{
		Pages: []hocr.Page{
			{
				ID:   "page_1",
				BBox: hocr.BoundingBox{X1: 0, Y1: 0, X2: pageWidthPt, Y2: pageHeightPt},
			},
		},
	}
	html, err := hocr.GenerateHOCRDocument(&doc)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindOther, "generate null hocr", err)
	}
	if err := os.WriteFile(hocrPath, []byte(html), 0o644); err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write null hocr", err)
	}
	return writeSkippedSidecar(sidecarPath)
}

func (e *Engine) logOutput(out []byte, imagePath string) {
	if e.Log == nil {
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Tesseract Open Source") {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(line), "error"):
			e.Log.Errorf("[tesseract] %s", line)
		case strings.Contains(strings.ToLower(line), "warning"):
			e.Log.Warnf("[tesseract] %s", line)
		default:
			e.Log.Infof("[tesseract] %s", line)
		}
	}
	_ = imagePath
}

// runTesseract runs tesseractPath with args under an optional timeout,
// reporting whether the deadline (not a tesseract-side error) triggered
// termination.
func runTesseract(ctx context.Context, tesseractPath string, args []string, timeout time.Duration) (out []byte, runErr error, timedOut bool) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, tesseractPath, args...)
	out, runErr = cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return out, nil, true
	}
	return out, runErr, false
}
