// Package sidecar merges the per-page OCR text that pkg/ocrengine produced
// into a single document-level sidecar text file (spec.md §4.J), mirroring
// OCRmyPDF's merge_sidecars/copy_final.
package sidecar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// SkippedPageText is written in place of a page's text when no sidecar
// file was produced for it (the page was skipped or OCR failed non-fatally).
const SkippedPageText = "[OCR skipped on page %d]"

// Merge concatenates the sidecar text files named by pages (one entry per
// page in document order; an empty string marks a skipped page) into dst,
// separating pages with a form feed (\f) the way Tesseract's own hOCR/text
// output would if it weren't stripped first.
func Merge(dst io.Writer, pages []string) error {
	w := bufio.NewWriter(dst)
	for i, path := range pages {
		if i != 0 {
			if _, err := w.WriteString("\f"); err != nil {
				return err
			}
		}
		if path == "" {
			if _, err := fmt.Fprintf(w, SkippedPageText, i+1); err != nil {
				return err
			}
			continue
		}
		if err := writePageText(w, path); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return w.Flush()
}

// writePageText copies a page's sidecar file into w, trimming exactly one
// trailing form feed if present. Some tesseract builds append a form feed
// of their own; textgraft supplies the page separators itself, so any
// trailing one from the source is redundant and dropped for consistency.
func writePageText(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)
	text = strings.TrimSuffix(text, "\f")
	_, err = io.WriteString(w, text)
	return err
}

// MergeToFile is the file-path convenience wrapper Merge's callers use: it
// creates outPath (truncating any existing file) and merges pages into it.
// outPath == "-" writes to stdout instead, matching the CLI's stdout
// sentinel for --sidecar.
func MergeToFile(outPath string, pages []string) error {
	if outPath == "-" {
		return Merge(os.Stdout, pages)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create sidecar file: %w", err)
	}
	defer f.Close()
	return Merge(f, pages)
}
