// Package weave implements the Weaver/Grafter (spec.md §4.I): it merges
// each page's OCR text layer and, where a visible-image replacement was
// produced, the reprocessed raster back into the original document's object
// graph, one page at a time, using only pdfcpu's low-level object-graph
// primitives.
package weave

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
	"github.com/textgraft/textgraft/pkg/textlog"
)

// PageLayer is one page's weave inputs, produced by the Executor.
type PageLayer struct {
	PageIndex             int // 0-based
	Info                  pdfmodel.PageInfo
	VisibleImagePDF       string // path to a single-page PDF replacing the base page's image content; empty to keep the original
	TextLayerPDF          string // path to a single-page PDF carrying the invisible OCR text; empty if no text was produced
	OrientationCorrection int    // clockwise degrees the rasterizer rotated the page by before OCR
	RedoOCR               bool   // true if this page's existing text layer must be stripped before grafting
}

// Options controls document-level weave behavior.
type Options struct {
	Log *textlog.Logger
}

// Weave merges layers into the base document loaded at basePath, writing
// the result to outPath. Pages are processed strictly in order; a page
// index absent from layers is left untouched.
func Weave(basePath, outPath string, layers []PageLayer, opts Options) error {
	ctx, err := api.ReadContextFile(basePath)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "read base document", err)
	}
	xref := ctx.XRefTable
	conf := model.NewDefaultConfiguration()

	scratch, err := os.MkdirTemp("", "textgraft-weave-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	remap := PageRefRemap{}

	for _, layer := range layers {
		if err := weavePage(basePath, xref, conf, scratch, layer, remap); err != nil {
			return fmt.Errorf("page %d: %w", layer.PageIndex+1, err)
		}
	}

	if err := fixToc(xref, remap); err != nil && opts.Log != nil {
		opts.Log.Warnf("weave: fixing table of contents: %v", err)
	}

	if err := api.WriteContextFile(ctx, outPath); err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "write woven document", err)
	}
	return nil
}

func weavePage(basePath string, xref *model.XRefTable, conf *model.Configuration, scratch string, layer PageLayer, remap PageRefRemap) error {
	pageNr := layer.PageIndex + 1 // pdfcpu page numbers are 1-based

	pageDict, pageIndRef, inh, err := xref.PageDict(pageNr, false)
	if err != nil {
		return fmt.Errorf("locate page dict: %w", err)
	}

	baseInfo := layer.Info
	baseWidth, baseHeight := baseInfo.WidthPt(), baseInfo.HeightPt()
	if inh != nil && inh.MediaBox != nil {
		baseWidth, baseHeight = inh.MediaBox.Width(), inh.MediaBox.Height()
	}

	if layer.VisibleImagePDF != "" {
		newRef, err := replacePageImage(xref, *pageIndRef, layer.VisibleImagePDF)
		if err != nil {
			return fmt.Errorf("replace visible image: %w", err)
		}
		remap[pageIndRef.ObjectNumber.Value()] = newRef
		pageDict, pageIndRef, _, err = xref.PageDict(pageNr, false)
		if err != nil {
			return fmt.Errorf("re-locate page dict after replace: %w", err)
		}
	}

	if layer.RedoOCR {
		if err := stripPageText(xref, conf, basePath, pageNr, scratch, pageDict); err != nil {
			return fmt.Errorf("strip prior text layer: %w", err)
		}
	}

	if layer.TextLayerPDF != "" {
		if err := graftTextLayer(xref, conf, scratch, pageDict, layer, baseWidth, baseHeight); err != nil {
			return fmt.Errorf("graft text layer: %w", err)
		}
	}

	finalRotation := normMod(baseInfo.Rotation-layer.OrientationCorrection, 360)
	pageDict["Rotate"] = types.Integer(finalRotation)

	if entry, found := xref.Table[pageIndRef.ObjectNumber.Value()]; found {
		entry.Object = pageDict
	}
	return nil
}

// replacePageImage opens the single-page PDF at imagePagePath, copies its
// page object graph into xref, and swaps it in place of oldRef in the
// parent's /Kids array, returning the new page's indirect reference.
func replacePageImage(xref *model.XRefTable, oldRef types.IndirectRef, imagePagePath string) (types.IndirectRef, error) {
	srcCtx, err := api.ReadContextFile(imagePagePath)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("open replacement page: %w", err)
	}
	srcXref := srcCtx.XRefTable

	srcPageDict, srcPageIndRef, _, err := srcXref.PageDict(1, false)
	if err != nil || srcPageDict == nil {
		return types.IndirectRef{}, fmt.Errorf("replacement page has no page 1: %w", err)
	}

	copied, err := CopyObject(srcXref, xref, *srcPageIndRef)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("copy page object graph: %w", err)
	}
	newRef, ok := copied.(types.IndirectRef)
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("copied page is not an indirect reference")
	}

	parentRef, err := swapKid(xref, oldRef, newRef)
	if err != nil {
		return types.IndirectRef{}, err
	}

	if entry, found := xref.Table[newRef.ObjectNumber.Value()]; found {
		if newPage, ok := entry.Object.(types.Dict); ok {
			newPage["Parent"] = parentRef
			entry.Object = newPage
		}
	}

	return newRef, nil
}

// swapKid finds oldRef inside its parent's /Kids array and replaces that
// entry with newRef, returning the parent's indirect reference.
func swapKid(xref *model.XRefTable, oldRef, newRef types.IndirectRef) (types.IndirectRef, error) {
	parentObj, err := xref.Dereference(oldRef)
	if err != nil {
		return types.IndirectRef{}, err
	}
	pageDict, ok := parentObj.(types.Dict)
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("page object is not a dict")
	}
	parentRefObj, ok := pageDict["Parent"]
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("page has no /Parent")
	}
	parentRef, ok := parentRefObj.(types.IndirectRef)
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("/Parent is not an indirect reference")
	}
	parentNodeObj, err := xref.Dereference(parentRef)
	if err != nil {
		return types.IndirectRef{}, err
	}
	parentNode, ok := parentNodeObj.(types.Dict)
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("parent node is not a dict")
	}
	kidsObj, ok := parentNode["Kids"]
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("parent has no /Kids")
	}
	kids, ok := kidsObj.(types.Array)
	if !ok {
		return types.IndirectRef{}, fmt.Errorf("/Kids is not an array")
	}
	for i, k := range kids {
		if ref, ok := k.(types.IndirectRef); ok && ref.ObjectNumber.Value() == oldRef.ObjectNumber.Value() {
			kids[i] = newRef
			if entry, found := xref.Table[parentRef.ObjectNumber.Value()]; found {
				entry.Object = parentNode
			}
			return parentRef, nil
		}
	}
	return types.IndirectRef{}, fmt.Errorf("page not found in parent /Kids")
}

func stripPageText(xref *model.XRefTable, conf *model.Configuration, docPath string, pageNr int, scratch string, pageDict types.Dict) error {
	raw, err := extractPageContent(docPath, pageNr, scratch, conf)
	if err != nil {
		return err
	}
	stripped := StripInvisibleText(raw)
	return replaceContents(xref, pageDict, stripped)
}

// extractPageContent shells out to pdfcpu's own content extractor rather
// than dereferencing and decoding the page's /Contents stream by hand,
// since the pack has no grounded example of reading an existing stream's
// decoded bytes directly off a *model.XRefTable.
func extractPageContent(docPath string, pageNr int, scratch string, conf *model.Configuration) ([]byte, error) {
	outDir := filepath.Join(scratch, fmt.Sprintf("extract-%d", pageNr))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := api.ExtractContentFile(docPath, outDir, []string{strconv.Itoa(pageNr)}, conf); err != nil {
		return nil, fmt.Errorf("extract page content: %w", err)
	}
	baseName := trimPDFExt(docPath)
	contentFile := filepath.Join(outDir, fmt.Sprintf("%s_Content_page_%d.txt", baseName, pageNr))
	return os.ReadFile(contentFile)
}

func trimPDFExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

func replaceContents(xref *model.XRefTable, pageDict types.Dict, content []byte) error {
	sd := types.NewStreamDict(types.Dict{}, int64(len(content)), nil, nil, nil)
	sd.Content = content
	sd.Raw = content
	ref, err := xref.IndRefForNewObject(sd)
	if err != nil {
		return err
	}
	pageDict["Contents"] = *ref
	return nil
}

// graftTextLayer copies the text-layer PDF's font resource into xref, wraps
// its content stream in the CTM computed from the orientation mismatch
// between the two pages, and appends it to the base page's /Contents.
func graftTextLayer(xref *model.XRefTable, conf *model.Configuration, scratch string, pageDict types.Dict, layer PageLayer, baseWidth, baseHeight float64) error {
	// A missing or zero-byte text-layer PDF (tesseract's placeholder for a
	// timed-out page) means there is no text layer to place.
	if fi, err := os.Stat(layer.TextLayerPDF); err != nil || fi.Size() == 0 {
		return nil
	}
	srcCtx, err := api.ReadContextFile(layer.TextLayerPDF)
	if err != nil {
		return fmt.Errorf("open text layer: %w", err)
	}
	srcXref := srcCtx.XRefTable

	srcPageDict, _, srcInh, err := srcXref.PageDict(1, false)
	if err != nil || srcPageDict == nil {
		return fmt.Errorf("text layer has no page 1: %w", err)
	}

	textWidth, textHeight := baseWidth, baseHeight
	if srcInh != nil && srcInh.MediaBox != nil {
		textWidth, textHeight = srcInh.MediaBox.Width(), srcInh.MediaBox.Height()
	}

	fontKey, fontObj, err := firstFontResource(srcXref, srcPageDict)
	if err != nil {
		return fmt.Errorf("locate text-layer font: %w", err)
	}
	if fontObj != nil {
		copiedFont, err := CopyObject(srcXref, xref, fontObj)
		if err != nil {
			return fmt.Errorf("copy text-layer font: %w", err)
		}
		if err := updatePageResources(xref, pageDict, fontKey, copiedFont); err != nil {
			return fmt.Errorf("update page resources: %w", err)
		}
	}

	raw, err := extractPageContent(layer.TextLayerPDF, 1, scratch, conf)
	if err != nil {
		return fmt.Errorf("read text-layer content: %w", err)
	}

	misaligned := textMisalignmentDeg(layer)
	ctm := ComputeTextTransform(misaligned, textWidth, textHeight, baseWidth, baseHeight)
	wrapped := WrapTextContent(raw, ctm)

	return appendContents(xref, pageDict, wrapped)
}

// textMisalignmentDeg computes R_mis, the angle ComputeTextTransform must
// rotate the text layer by to align with the base page's content. The text
// layer was OCRed against a raster rotated by OrientationCorrection. When
// that same raster also became the page's new visible content (replacing),
// the two already share one orientation and need no further correction.
// Otherwise the base page keeps its original content at its original
// /Rotate, so the misalignment is the gap between that and the correction
// the OCR pass applied (_weave.py's weave_layers: content_rotation
// defaults to the page's declared rotation and is only replaced by
// autorotate_correction when the image itself was replaced).
func textMisalignmentDeg(layer PageLayer) int {
	if layer.VisibleImagePDF != "" {
		return layer.OrientationCorrection
	}
	return normMod(layer.OrientationCorrection-layer.Info.Rotation, 360)
}

func appendContents(xref *model.XRefTable, pageDict types.Dict, content []byte) error {
	sd := types.NewStreamDict(types.Dict{}, int64(len(content)), nil, nil, nil)
	sd.Content = content
	sd.Raw = content
	newRef, err := xref.IndRefForNewObject(sd)
	if err != nil {
		return err
	}

	existing, ok := pageDict["Contents"]
	if !ok {
		pageDict["Contents"] = *newRef
		return nil
	}
	switch c := existing.(type) {
	case types.Array:
		pageDict["Contents"] = append(c, *newRef)
	default:
		pageDict["Contents"] = types.Array{existing, *newRef}
	}
	return nil
}
