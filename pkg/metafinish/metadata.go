// Package metafinish implements the Metadata Finisher (spec.md §4.K): it
// carries and overrides document info, mirrors it into XMP, optionally
// converts to PDF/A via an external normalizer, and sends outputs larger
// than the fast-web-view threshold through a linearize step that logs a
// warning and leaves the file unlinearized.
package metafinish

import (
	"strings"
	"time"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/textlog"
)

// Overrides carries the user-supplied metadata overrides from the CLI;
// a field left empty keeps whatever the input PDF already had.
type Overrides struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
}

// Options controls one Finish call.
type Options struct {
	ProgramName    string
	ProgramVersion string
	EngineName     string
	EngineVersion  string
	Overrides      Overrides
	OutputType     OutputType
	FastWebViewMB  float64 // above this many megabytes the linearize step runs (it only warns; nothing is linearized)
	Log            *textlog.Logger
}

// OutputType is the --output-type selection.
type OutputType int

const (
	OutputPDF OutputType = iota
	OutputPDFA1
	OutputPDFA2
	OutputPDFA3
	OutputNone
)

// Finish reads docinfo from srcPath, merges overrides, stamps
// Creator/Producer/ModDate, mirrors the result into XMP, optionally
// converts to PDF/A, and writes the final file to dstPath. Outputs over
// FastWebViewMB are not linearized: the linearize step only logs a warning.
func Finish(srcPath, dstPath string, opts Options) error {
	if opts.OutputType == OutputNone {
		return copyFile(srcPath, dstPath)
	}

	conf := model.NewDefaultConfiguration()

	current, err := readProperties(srcPath, conf)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "read existing metadata", err)
	}

	merged := mergeProperties(current, opts)
	if err := validateMetadata(merged, opts.OutputType); err != nil {
		return err
	}

	stagePath := dstPath + ".meta.pdf"
	if err := api.AddPropertiesFile(srcPath, stagePath, merged, conf); err != nil {
		return ocrerr.Wrap(ocrerr.KindInvalidOutputPdf, "write metadata", err)
	}
	defer removeIfExists(stagePath)

	xmpPath := stagePath
	if opts.OutputType != OutputPDF {
		xmpStaged := dstPath + ".xmp.pdf"
		if err := embedXMP(stagePath, xmpStaged, merged); err != nil {
			return err
		}
		defer removeIfExists(xmpStaged)
		xmpPath = xmpStaged

		pdfaStaged := dstPath + ".pdfa.pdf"
		if err := convertToPDFA(xmpPath, pdfaStaged, conformancePart(opts.OutputType)); err != nil {
			return err
		}
		defer removeIfExists(pdfaStaged)
		xmpPath = pdfaStaged

		ok, err := claimsPDFA(xmpPath)
		if err != nil {
			return ocrerr.Wrap(ocrerr.KindPdfaConversionFailed, "verify PDF/A marker", err)
		}
		if !ok {
			return ocrerr.New(ocrerr.KindPdfaConversionFailed, "converted file has no PDF/A marker")
		}
	} else {
		xmpStaged := dstPath + ".xmp.pdf"
		if err := embedXMP(stagePath, xmpStaged, merged); err != nil {
			return err
		}
		defer removeIfExists(xmpStaged)
		xmpPath = xmpStaged
	}

	finalPath := xmpPath
	if shouldLinearize(finalPath, opts.FastWebViewMB) {
		linPath := dstPath + ".lin.pdf"
		if err := linearize(finalPath, linPath, opts.Log); err != nil {
			return err
		}
		defer removeIfExists(linPath)
		finalPath = linPath
	}

	return copyFile(finalPath, dstPath)
}

func conformancePart(t OutputType) string {
	switch t {
	case OutputPDFA1:
		return "1"
	case OutputPDFA3:
		return "3"
	default:
		return "2"
	}
}

func readProperties(path string, conf *model.Configuration) (map[string]string, error) {
	info, err := api.Info(path, conf)
	if err != nil {
		return map[string]string{}, nil
	}
	return info.Values, nil
}

// mergeProperties applies user overrides over the carried-forward fields,
// strips embedded NULs some producers leave behind, and stamps
// Creator/Producer/ModDate the way spec.md §4.K requires.
func mergeProperties(current map[string]string, opts Options) map[string]string {
	out := map[string]string{}
	for _, key := range []string{"Title", "Author", "Subject", "Keywords", "CreationDate"} {
		if v, ok := current[key]; ok {
			out[key] = stripNUL(v)
		}
	}
	if opts.Overrides.Title != "" {
		out["Title"] = opts.Overrides.Title
	}
	if opts.Overrides.Author != "" {
		out["Author"] = opts.Overrides.Author
	}
	if opts.Overrides.Subject != "" {
		out["Subject"] = opts.Overrides.Subject
	}
	if opts.Overrides.Keywords != "" {
		out["Keywords"] = opts.Overrides.Keywords
	}
	out["Creator"] = opts.ProgramName + " " + opts.ProgramVersion + " / " + opts.EngineName + " " + opts.EngineVersion
	out["Producer"] = out["Creator"]
	out["ModDate"] = pdfDate(now())
	if _, ok := out["CreationDate"]; !ok {
		out["CreationDate"] = out["ModDate"]
	}
	return out
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// pdfDate formats t as a PDF date string, D:YYYYMMDDHHmmSS±HH'mm'.
func pdfDate(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	oh, om := offset/3600, (offset%3600)/60
	return t.Format("D:20060102150405") + sign + padInt(oh) + "'" + padInt(om) + "'"
}

func padInt(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// now is overridable in tests; wraps time.Now so the rest of the package
// never calls it directly.
var now = time.Now

// validateMetadata rejects private-use and supplementary-plane codepoints
// in any metadata string when targeting PDF/A, per spec.md §4.K.
func validateMetadata(props map[string]string, t OutputType) error {
	if t == OutputPDF || t == OutputNone {
		return nil
	}
	for key, v := range props {
		for _, r := range v {
			if unicode.Is(unicode.Co, r) || r >= 0x10000 {
				return ocrerr.New(ocrerr.KindPdfaConversionFailed,
					"metadata field "+key+" contains a character not permitted in PDF/A")
			}
		}
	}
	return nil
}
