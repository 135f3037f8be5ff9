package hocr

import (
	"strings"
)

// ExtractHOCRText extracts all text from an HOCR document
// The text is ordered by page, with paragraphs separated by newlines
// and pages separated by double newlines
func ExtractHOCRText(hocrDoc *HOCR) string {
	var builder strings.Builder

	for _, page := range hocrDoc.Pages {
		// Track processed content to avoid duplication
		processedContent := make(map[string]bool)

		// Extract text from areas (which may contain paragraphs and lines)
		for _, area := range page.Areas {
			extractAreaText(&builder, area, processedContent)
		}

		// Extract text from paragraphs directly on the page
		for _, para := range page.Paragraphs {
			extractParagraphText(&builder, para, processedContent)
		}

		// Extract text from lines directly on the page
		for _, line := range page.Lines {
			lineKey := getLineKey(line)
			if !processedContent[lineKey] {
				extractLineText(&builder, line)
				processedContent[lineKey] = true
			}
		}

		// Add a page break
		builder.WriteString("\n\n")
	}

	return builder.String()
}

// extractAreaText processes text from an area, including its paragraphs and lines
func extractAreaText(builder *strings.Builder, area Area, processed map[string]bool) {
	// Process paragraphs in the area
	for _, para := range area.Paragraphs {
		extractParagraphText(builder, para, processed)
	}

	// Process lines directly in the area
	for _, line := range area.Lines {
		lineKey := getLineKey(line)
		if !processed[lineKey] {
			extractLineText(builder, line)
			processed[lineKey] = true
		}
	}

	// Process words directly in the area (rare, but possible)
	if len(area.Words) > 0 {
		for _, word := range area.Words {
			builder.WriteString(word.Text)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}
}

// extractParagraphText processes text from a paragraph and its lines
func extractParagraphText(builder *strings.Builder, para Paragraph, processed map[string]bool) {
	// Process lines in the paragraph
	for _, line := range para.Lines {
		lineKey := getLineKey(line)
		if !processed[lineKey] {
			extractLineText(builder, line)
			processed[lineKey] = true
		}
	}

	// Process words directly in the paragraph (if any)
	if len(para.Words) > 0 {
		for _, word := range para.Words {
			builder.WriteString(word.Text)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}
}

// extractLineText processes text from a line and its words
func extractLineText(builder *strings.Builder, line Line) {
	for _, word := range line.Words {
		builder.WriteString(word.Text)
		builder.WriteString(" ")
	}
	builder.WriteString("\n")
}

// getLineKey generates a unique key for a line to avoid duplication
func getLineKey(line Line) string {
	return line.ID
}

// MeanConfidence averages every ocrx_word's x_wconf across a page, giving
// callers a single per-page quality signal without walking the hOCR
// hierarchy themselves. Returns 0 for a page with no words.
func (p Page) MeanConfidence() float64 {
	var sum float64
	var count int
	walkPageWords(p, func(w Word) {
		sum += w.Confidence
		count++
	})
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// LowConfidenceWordCount counts words whose x_wconf falls at or below
// threshold, e.g. to flag a page worth a --force-ocr retry.
func (p Page) LowConfidenceWordCount(threshold float64) int {
	var n int
	walkPageWords(p, func(w Word) {
		if w.Confidence <= threshold {
			n++
		}
	})
	return n
}

// walkPageWords visits every Word in a page regardless of which of the
// hOCR hierarchy's several valid nesting shapes (area/paragraph/line, or
// words attached directly to a shallower ancestor) produced it.
func walkPageWords(p Page, visit func(Word)) {
	var walkLine func(Line)
	walkLine = func(l Line) {
		for _, w := range l.Words {
			visit(w)
		}
	}
	var walkParagraph func(Paragraph)
	walkParagraph = func(para Paragraph) {
		for _, w := range para.Words {
			visit(w)
		}
		for _, l := range para.Lines {
			walkLine(l)
		}
	}
	for _, area := range p.Areas {
		for _, w := range area.Words {
			visit(w)
		}
		for _, l := range area.Lines {
			walkLine(l)
		}
		for _, para := range area.Paragraphs {
			walkParagraph(para)
		}
	}
	for _, para := range p.Paragraphs {
		walkParagraph(para)
	}
	for _, l := range p.Lines {
		walkLine(l)
	}
}
