// Package pipeline implements the Pipeline Executor (spec.md §4.L): it
// wires the Inspector, Classifier, Resolution Planner, Rasterizer,
// Preprocessing Chain, Orientation Estimator, OCR Adapter, Text-Layer
// Renderer, Weaver, Sidecar Merger and Metadata Finisher together into one
// end-to-end run, fanning per-page work out across a worker pool and
// fanning the results back in strictly in page order.
package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/textgraft/textgraft/pkg/classify"
	"github.com/textgraft/textgraft/pkg/hocr"
	"github.com/textgraft/textgraft/pkg/metafinish"
	"github.com/textgraft/textgraft/pkg/ocrengine"
	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/orient"
	"github.com/textgraft/textgraft/pkg/pdfinspect"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/preprocess"
	"github.com/textgraft/textgraft/pkg/raster"
	"github.com/textgraft/textgraft/pkg/resplan"
	"github.com/textgraft/textgraft/pkg/sidecar"
	"github.com/textgraft/textgraft/pkg/textlayer"
	"github.com/textgraft/textgraft/pkg/textlog"
	"github.com/textgraft/textgraft/pkg/weave"
)

// Options carries every user-facing knob the CLI layer resolves down to a
// single run.
type Options struct {
	WorkDir string

	Mode       pdfmodel.PageMode
	PageFilter map[int]bool // nil means all pages

	Languages           []string
	TesseractPath       string
	TesseractTimeoutSec int
	PageSegMode         int
	OEM                 int
	TessConfigs         []string
	Renderer            ocrengine.Renderer
	Engine              ocrengine.Engine // overrides the default tesseract engine when set (e.g. Document AI)

	Deskew            bool
	Clean             bool
	CleanFinal        bool
	CleanerPath       string
	CleanArgs         []string
	RemoveBackground  bool
	RotatePages       bool
	RotateThreshold   float64
	Oversample        float64
	SkipBigMegapixels float64

	// Lossless is classify.ComputeLosslessReconstruction's document-level
	// verdict, computed once in Run and threaded into every processPage
	// call: when false, every non-skipped page gets its visible layer
	// replaced with the rasterized image regardless of which individual
	// preprocessing step ran (spec.md:186, _sync.py's `not
	// options.lossless_reconstruction` gate).
	Lossless bool

	MaxWorkers int

	Metadata metafinish.Options

	SidecarPath string

	Log *textlog.Logger
}

// Result is the outcome of a successful Run.
type Result struct {
	PagesTotal     int
	PagesOCRed     int
	PagesSkipped   int
	SidecarWritten bool
}

// colorspaces is the raster-device escalation ladder ocrmypdf's
// get_pdfinfo/rasterize device-selection walks: mono unless a non-mask
// image or vector content demands more.
var colorspaces = []raster.Device{
	raster.DeviceMono1bpp,
	raster.DeviceGray8bpp,
	raster.DeviceIndexed8bpp,
	raster.DeviceRGB24bpp,
}

// Run executes the full pipeline against inputPath, writing the finished
// document to outputPath ("-" for stdout). It returns ocrerr.Error values
// for every failure so the CLI layer can map them to the stable exit-code
// contract.
func Run(ctx context.Context, inputPath, outputPath string, opts Options) (Result, error) {
	if opts.WorkDir == "" {
		return Result{}, ocrerr.New(ocrerr.KindBadArgs, "work directory is required")
	}
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return Result{}, ocrerr.Wrap(ocrerr.KindOutputFileAccess, "create working directory", err)
	}
	defer os.RemoveAll(opts.WorkDir)

	pdfPath, err := triageInput(inputPath, opts.WorkDir)
	if err != nil {
		return Result{}, err
	}

	detailed := opts.Mode == pdfmodel.ModeRedoOCR
	pages, err := pdfinspect.Inspect(pdfPath, detailed, opts.Log)
	if err != nil {
		return Result{}, err
	}
	if len(pages) == 0 {
		return Result{}, ocrerr.New(ocrerr.KindInputFile, "input PDF has no pages")
	}

	warnPriorOCRLayer(pdfPath, opts.Log)

	lossless := classify.ComputeLosslessReconstruction(opts.Deskew, opts.CleanFinal, opts.Mode == pdfmodel.ModeForceOCR, opts.RemoveBackground)
	opts.Lossless = lossless
	classifyOpts := classify.Options{
		Mode:                   opts.Mode,
		PageFilter:             opts.PageFilter,
		SkipBigMegapixels:      opts.SkipBigMegapixels,
		LosslessReconstruction: lossless,
	}

	decisions := make([]pdfmodel.PageDecision, len(pages))
	for i, pi := range pages {
		d := classify.Classify(pi, classifyOpts)
		if d.Mode == pdfmodel.DecisionSkip && d.Reason == "prior-ocr-found" {
			return Result{}, ocrerr.New(ocrerr.KindPriorOcrFound, fmt.Sprintf("page %d already has a text layer; use --force-ocr, --skip-text, or --redo-ocr", pi.PageIndex+1))
		}
		decisions[i] = d
	}

	engine := opts.Engine
	if engine == nil {
		engine = defaultEngine(opts)
	}

	results := make([]*pdfmodel.PageWorkResult, len(pages))
	sidecars := make([]string, len(pages))

	workers := workerCount(len(pages), opts.MaxWorkers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range pages {
		i := i
		pi := pages[i]
		decision := decisions[i]
		g.Go(func() error {
			res, sidecarPath, err := processPage(gctx, pi, decision, pdfPath, opts, engine)
			if err != nil {
				return fmt.Errorf("page %d: %w", pi.PageIndex+1, err)
			}
			results[i] = &res
			sidecars[i] = sidecarPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			return Result{}, ocrerr.New(ocrerr.KindInterrupted, "pipeline cancelled")
		}
		var oerr *ocrerr.Error
		if asOcrerr(err, &oerr) {
			return Result{}, oerr
		}
		return Result{}, ocrerr.Wrap(ocrerr.KindOther, "page worker failed", err)
	}

	layers := make([]weave.PageLayer, 0, len(pages))
	ocred, skipped := 0, 0
	for i, r := range results {
		if r == nil {
			continue
		}
		layers = append(layers, weave.PageLayer{
			PageIndex:             r.PageIndex,
			Info:                  pages[i],
			VisibleImagePDF:       r.VisibleImagePDF,
			TextLayerPDF:          r.TextLayerPDF,
			OrientationCorrection: r.OrientationCorrection,
			RedoOCR:               decisions[i].Mode == pdfmodel.DecisionOCRRedo,
		})
		if r.Skipped {
			skipped++
		} else if decisions[i].Mode != pdfmodel.DecisionSkip {
			ocred++
		}
	}

	wovenPath := filepath.Join(opts.WorkDir, "woven.pdf")
	if err := weave.Weave(pdfPath, wovenPath, layers, weave.Options{Log: opts.Log}); err != nil {
		return Result{}, err
	}

	finalPath := filepath.Join(opts.WorkDir, "final.pdf")
	if err := metafinish.Finish(wovenPath, finalPath, opts.Metadata); err != nil {
		return Result{}, err
	}

	if err := publish(finalPath, outputPath); err != nil {
		return Result{}, err
	}

	sidecarWritten := false
	if opts.SidecarPath != "" {
		if err := sidecar.MergeToFile(opts.SidecarPath, sidecars); err != nil {
			return Result{}, ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write sidecar", err)
		}
		sidecarWritten = true
	}

	return Result{
		PagesTotal:     len(pages),
		PagesOCRed:     ocred,
		PagesSkipped:   skipped,
		SidecarWritten: sidecarWritten,
	}, nil
}

// asOcrerr is errors.As without importing errors twice in call sites that
// already shadow the package name via a context error check above.
func asOcrerr(err error, target **ocrerr.Error) bool {
	for err != nil {
		if e, ok := err.(*ocrerr.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// workerCount implements the spec's pool-sizing rule: min(1 + ceil(n/4),
// maxWorkers).
func workerCount(nPages, maxWorkers int) int {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	w := 1 + int(math.Ceil(float64(nPages)/4.0))
	if w > maxWorkers {
		w = maxWorkers
	}
	if w < 1 {
		w = 1
	}
	return w
}

func defaultEngine(opts Options) ocrengine.Engine {
	return newTesseractEngine(opts)
}

// triageInput recognizes a single-image input (per the supplemented
// image-input-triage feature) and wraps it in a one-page PDF so the rest
// of the pipeline only ever sees PDFs; a PDF input passes through
// unchanged.
func triageInput(inputPath, workDir string) (string, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindInputFile, "open input", err)
	}
	defer f.Close()

	header := make([]byte, 5)
	n, _ := f.Read(header)
	if n >= 5 && string(header[:5]) == "%PDF-" {
		return inputPath, nil
	}

	if _, err := f.Seek(0, 0); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindInputFile, "rewind input", err)
	}
	if _, _, err := image.DecodeConfig(f); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindInputFile, "input is neither a PDF nor a recognized image format", err)
	}

	wrapped := filepath.Join(workDir, "input-from-image.pdf")
	conf := model.NewDefaultConfiguration()
	conf.CreateBookmarks = false
	if err := api.ImportImagesFile([]string{inputPath}, wrapped, nil, conf); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindInputFile, "wrap image input into a PDF", err)
	}
	return wrapped, nil
}

// warnPriorOCRLayer supplements classify's content-stream-derived
// prior-ocr-found skip/force decision with the teacher's OCG-layer-name
// heuristic: it never changes what gets OCRed, it only flags an existing
// layer that looks like somebody else's OCR pass so the log isn't silent
// about it. Failure to open the context is not fatal to the run.
func warnPriorOCRLayer(pdfPath string, log *textlog.Logger) {
	ctx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return
	}
	info, err := pdfinspect.DetectPriorOCR(pdfPath, ctx, textlayer.DefaultLayerName)
	if err != nil {
		return
	}
	if info.HasOCGLayer && log != nil {
		log.Warnf("document already has a %q optional content layer; it will be merged alongside any new OCR layer", textlayer.DefaultLayerName)
	}
	for _, w := range info.Warnings {
		if log != nil {
			log.Warnf("%s", w)
		}
	}
}

// publish implements the atomic-output contract: the caller's output path
// is only touched once the finished file exists in the working directory.
func publish(finalPath, outputPath string) error {
	data, err := os.ReadFile(finalPath)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "read final output", err)
	}
	if outputPath == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write output to stdout", err)
		}
		return nil
	}
	tmp := outputPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "stage output file", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "publish output file", err)
	}
	return nil
}

// firstHOCRPage is the minimal accessor pipeline needs from a parsed hOCR
// document: its single page (one page image is OCRed at a time, so a
// multi-page hOCR document never occurs here).
func firstHOCRPage(doc hocr.HOCR) (hocr.Page, bool) {
	if len(doc.Pages) == 0 {
		return hocr.Page{}, false
	}
	return doc.Pages[0], true
}
