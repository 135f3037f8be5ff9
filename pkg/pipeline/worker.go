package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/textgraft/textgraft/pkg/hocr"
	"github.com/textgraft/textgraft/pkg/ocrengine"
	"github.com/textgraft/textgraft/pkg/ocrengine/tesseract"
	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/orient"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/preprocess"
	"github.com/textgraft/textgraft/pkg/raster"
	"github.com/textgraft/textgraft/pkg/resplan"
	"github.com/textgraft/textgraft/pkg/textlayer"
)

// lowConfidenceWarnThreshold is the x_wconf (0-100) below which a page's
// mean word confidence gets a warning; tesseract's and Document AI's hOCR
// both report confidence on this scale. Purely diagnostic: textgraft has
// no --force-ocr-on-low-confidence mode, this only surfaces the signal.
const lowConfidenceWarnThreshold = 50

func newTesseractEngine(opts Options) ocrengine.Engine {
	return tesseract.New(opts.TesseractPath, opts.WorkDir, opts.Log)
}

// processPage runs one page through components D (Rasterizer) through H
// (Text-Layer Renderer), returning the work result the Weaver/Sidecar
// Merger consume and the path to this page's sidecar text file (empty for
// a skipped page).
func processPage(ctx context.Context, pi pdfmodel.PageInfo, decision pdfmodel.PageDecision, pdfPath string, opts Options, engine ocrengine.Engine) (pdfmodel.PageWorkResult, string, error) {
	result := pdfmodel.PageWorkResult{PageIndex: pi.PageIndex}

	if decision.Mode == pdfmodel.DecisionSkip {
		result.Skipped = true
		return result, "", nil
	}

	prefix := fmt.Sprintf("%06d", pi.PageIndex+1)
	work := func(role, ext string) string {
		return filepath.Join(opts.WorkDir, prefix+"."+role+"."+ext)
	}

	plan := resplan.Compute(pi, opts.Oversample)
	if decision.OversampleVector && plan.SquareDPI < resplan.VectorPageDPI {
		plan.PageDPIX, plan.PageDPIY, plan.SquareDPI = resplan.VectorPageDPI, resplan.VectorPageDPI, resplan.VectorPageDPI
	}
	device := deviceForPage(pi)

	correction := 0
	if opts.RotatePages {
		previewPath := work("preview", "png")
		if _, err := raster.Rasterize(raster.Request{
			InputPDF: pdfPath, OutputImage: previewPath, PageNo: pi.PageIndex + 1,
			RasterDPIX: 72, RasterDPIY: 72, Device: raster.DeviceGray8bpp,
		}); err == nil {
			threshold := opts.RotateThreshold
			if threshold <= 0 {
				threshold = orient.DefaultRotateThreshold
			}
			timeout := time.Duration(opts.TesseractTimeoutSec) * time.Second
			est := orient.Estimate(ctx, opts.TesseractPath, previewPath, timeout, opts.Log)
			correction, _ = orient.Decide(est, threshold)
		} else if opts.Log != nil {
			opts.Log.Warnf("orientation preview render failed: %v", err)
		}
	}

	rasterPath := work("ocr", "png")
	if _, err := raster.Rasterize(raster.Request{
		InputPDF: pdfPath, OutputImage: rasterPath, PageNo: pi.PageIndex + 1,
		RasterDPIX: plan.PageDPIX, RasterDPIY: plan.PageDPIY,
		Device: device, Rotation: correction, FilterVector: decision.OversampleVector,
	}); err != nil {
		return result, "", err
	}
	result.OrientationCorrection = correction

	current := rasterPath
	ocrImage := "" // set when OCR reads a different image than the visible layer
	altered := false

	if decision.Mode == pdfmodel.DecisionOCRRedo {
		masked := work("masked", "png")
		mode := preprocess.MaskNone
		if len(pi.TextBoxes) > 0 {
			mode = preprocess.MaskRedo
		}
		if err := preprocess.PaintOCRMask(current, masked, pi.TextBoxes, mode, pi.HeightPt(), plan.SquareDPI); err != nil {
			return result, "", err
		}
		current = masked
		if mode == preprocess.MaskRedo {
			altered = true
		}
	}

	if opts.RemoveBackground {
		bpc := 8
		for _, img := range pi.Images {
			if img.BitsPerComponent > 0 {
				bpc = img.BitsPerComponent
				break
			}
		}
		out := work("bg", "png")
		if err := preprocess.RemoveBackground(current, out, bpc); err != nil {
			return result, "", err
		}
		current = out
		altered = true
	}

	if opts.Deskew {
		out := work("deskew", "png")
		if _, err := preprocess.Deskew(current, out, plan.SquareDPI); err != nil {
			return result, "", err
		}
		current = out
		altered = true
	}

	if opts.Clean {
		out := work("clean", "png")
		if err := preprocess.Clean(opts.CleanerPath, current, out, opts.CleanArgs, plan.SquareDPI); err != nil {
			return result, "", err
		}
		if opts.CleanFinal {
			current = out
			altered = true
		} else {
			// clean-without-clean-final feeds the cleaned image to OCR only;
			// the visible page keeps the pre-clean raster.
			ocrImage = out
		}
	}
	if ocrImage == "" {
		ocrImage = current
	}

	ocrRes, err := engine.Run(ctx, ocrengine.Request{
		ImagePath:    ocrImage,
		Languages:    opts.Languages,
		PageSegMode:  opts.PageSegMode,
		OEM:          opts.OEM,
		TessConfigs:  opts.TessConfigs,
		Timeout:      time.Duration(opts.TesseractTimeoutSec) * time.Second,
		Renderer:     opts.Renderer,
		PageWidthPt:  pi.WidthPt(),
		PageHeightPt: pi.HeightPt(),
	})
	if err != nil {
		return result, "", err
	}
	if ocrRes.Skipped && opts.Log != nil {
		opts.Log.WithPage(pi.PageIndex).Warnf("OCR skipped: %s", ocrRes.SkipReason)
	}

	altered = finalizeAltered(altered, opts.Lossless)

	sidecarPath := ocrRes.SidecarText

	switch opts.Renderer {
	case ocrengine.RendererHOCR:
		if ocrRes.HOCRPath != "" {
			data, err := os.ReadFile(ocrRes.HOCRPath)
			if err != nil {
				return result, "", ocrerr.Wrap(ocrerr.KindInputFile, "read hocr output", err)
			}
			doc, err := hocr.ParseHOCR(data)
			if err != nil {
				return result, "", ocrerr.Wrap(ocrerr.KindOther, "parse hocr output", err)
			}
			if page, ok := firstHOCRPage(doc); ok {
				if opts.Log != nil {
					if mean := page.MeanConfidence(); mean > 0 && mean < lowConfidenceWarnThreshold {
						opts.Log.WithPage(pi.PageIndex).Warnf("low OCR confidence (mean %.1f%%, %d words at or below %.0f%%)",
							mean, page.LowConfidenceWordCount(lowConfidenceWarnThreshold), lowConfidenceWarnThreshold)
					}
				}
				pdfBytes, err := textlayer.Render(page, textlayer.Options{PageNum: pi.PageIndex + 1, LayerName: textlayer.DefaultLayerName})
				if err != nil {
					return result, "", ocrerr.Wrap(ocrerr.KindOther, "render text layer", err)
				}
				textPDFPath := work("text", "pdf")
				if err := os.WriteFile(textPDFPath, pdfBytes, 0o644); err != nil {
					return result, "", ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write text layer pdf", err)
				}
				result.TextLayerPDF = textPDFPath
			}
		}
	default:
		result.TextLayerPDF = ocrRes.TextPDFPath
	}

	if altered {
		imgPDF := work("image", "pdf")
		conf := model.NewDefaultConfiguration()
		conf.CreateBookmarks = false
		if err := api.ImportImagesFile([]string{current}, imgPDF, nil, conf); err != nil {
			return result, "", ocrerr.Wrap(ocrerr.KindOther, "wrap reprocessed page image", err)
		}
		result.VisibleImagePDF = imgPDF
	}

	if ocrRes.Skipped {
		result.Skipped = true
	}
	return result, sidecarPath, nil
}

// finalizeAltered folds the document-level lossless-reconstruction verdict
// into a page's altered flag: once any flag disqualifies lossless
// reconstruction (force-ocr, deskew, clean-final, remove-background), every
// OCRed page's visible layer is replaced, not just the pages whose
// individual preprocessing branch happened to touch pixels (spec.md:186,
// _sync.py's `not options.lossless_reconstruction` gate).
func finalizeAltered(altered, lossless bool) bool {
	return altered || !lossless
}

// deviceForPage selects the raster device using the same escalation
// colorspaces walks: mono unless a non-mask image or vector content
// demands more color depth.
func deviceForPage(pi pdfmodel.PageInfo) raster.Device {
	device := colorspaces[0]
	atLeast := func(want raster.Device) {
		for i, c := range colorspaces {
			if c == want {
				if i > indexOf(colorspaces, device) {
					device = c
				}
				return
			}
		}
	}
	for _, img := range pi.Images {
		if img.Type == pdfmodel.ImageKindStencilMask {
			continue
		}
		switch img.Colorspace.Kind {
		case pdfmodel.ColorspaceIndexed:
			atLeast(raster.DeviceIndexed8bpp)
		case pdfmodel.ColorspaceGray:
			atLeast(raster.DeviceGray8bpp)
		default:
			atLeast(raster.DeviceRGB24bpp)
		}
	}
	if pi.HasVector == pdfmodel.HasVectorYes {
		atLeast(raster.DeviceRGB24bpp)
	}
	return device
}

func indexOf(devices []raster.Device, d raster.Device) int {
	for i, c := range devices {
		if c == d {
			return i
		}
	}
	return -1
}
