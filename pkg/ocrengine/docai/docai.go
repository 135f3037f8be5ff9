// Package docai adapts Google Document AI to textgraft's ocrengine.Engine
// contract, as a per-page alternative to the local tesseract binary.
//
// Engine.Run (engine.go) is the only entry point textgraft's pipeline
// calls: one page's rasterized PNG in, one hOCR document and one plain-text
// sidecar out, matching what pkg/textlayer and pkg/sidecar expect from any
// engine. The rest of this package (the structured Document model, the
// form-field and custom-extractor extraction) mirrors
// Document AI's full response shape so DebugDocPath can dump it for
// inspection, but textgraft's own output never reads those fields back.
//
// Requires a Google Cloud project with Document AI enabled, a configured
// processor, and credentials via GOOGLE_APPLICATION_CREDENTIALS.
package docai

import (
	"context"
	"fmt"
)

// DocumentHOCR sends one page's rasterized image to Document AI and
// returns our structured Document alongside the generated hOCR HTML.
func DocumentHOCR(ctx context.Context, imageBytes []byte, cfg *Config) (*Document, string, error) {
	rawDoc, err := ProcessDocument(ctx, imageBytes, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to process document: %w", err)
	}

	// Convert to our structure
	doc := DocumentFromProto(rawDoc)

	// Return the document and generated hOCR HTML
	return doc, doc.Hocr.HTML, nil
}
