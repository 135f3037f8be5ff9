package docai

import (
	"context"
	"os"

	"github.com/textgraft/textgraft/pkg/ocrengine"
	"github.com/textgraft/textgraft/pkg/ocrerr"
)

// Engine adapts Google Document AI to the ocrengine.Engine contract. It
// only supports hOCR-mode output: Document AI has no "textonly PDF"
// concept, so every page goes through pkg/textlayer regardless of the
// requested Renderer.
type Engine struct {
	Config *Config
}

// New builds a docai Engine bound to a processor.
func New(cfg *Config) *Engine {
	return &Engine{Config: cfg}
}

// Run sends the page image to Document AI and writes its hOCR conversion
// to a sidecar file next to the image.
func (e *Engine) Run(ctx context.Context, req ocrengine.Request) (ocrengine.Result, error) {
	imageBytes, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindInputFile, "read page image", err)
	}

	doc, hocrHTML, err := DocumentHOCR(ctx, imageBytes, e.Config)
	if err != nil {
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindSubprocessOutput, "document ai request failed", err)
	}

	hocrPath := req.ImagePath + ".hocr"
	if err := os.WriteFile(hocrPath, []byte(hocrHTML), 0o644); err != nil {
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write docai hocr", err)
	}

	sidecarPath := req.ImagePath + ".txt"
	text := ""
	if doc.Text != nil {
		text = doc.Text.Content
	}
	if err := os.WriteFile(sidecarPath, []byte(text), 0o644); err != nil {
		return ocrengine.Result{}, ocrerr.Wrap(ocrerr.KindOutputFileAccess, "write docai sidecar", err)
	}

	if e.Config.DebugDocPath != "" {
		if docJSON, jerr := ToJSON(doc); jerr == nil {
			os.WriteFile(req.ImagePath+".debug.json", []byte(docJSON), 0o644)
		}
	}

	return ocrengine.Result{HOCRPath: hocrPath, SidecarText: sidecarPath}, nil
}
