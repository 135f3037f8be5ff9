// Package pipeconfig binds the CLI surface (spec.md §6) to a
// PipelineConfig: flags registered on a pflag.FlagSet, an optional YAML
// config file read first, and flags always winning over the file. It also
// owns the two pieces of validation the CLI needs before the Pipeline
// Executor ever starts: OCR-mode exclusivity and the `--pages` range
// syntax.
package pipeconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/textgraft/textgraft/pkg/metafinish"
	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

// PipelineConfig is the fully resolved set of knobs the Pipeline Executor
// and Metadata Finisher need for one run.
type PipelineConfig struct {
	ForceOCR bool `yaml:"force_ocr"`
	SkipText bool `yaml:"skip_text"`
	RedoOCR  bool `yaml:"redo_ocr"`

	Deskew           bool    `yaml:"deskew"`
	Clean            bool    `yaml:"clean"`
	CleanFinal       bool    `yaml:"clean_final"`
	RemoveBackground bool    `yaml:"remove_background"`
	RotatePages      bool    `yaml:"rotate_pages"`
	RotateThreshold  float64 `yaml:"rotate_pages_threshold"`
	Oversample       float64 `yaml:"oversample"`
	CleanerPath      string  `yaml:"cleaner_path"`

	Languages string `yaml:"languages"` // "eng+deu"

	OutputType string `yaml:"output_type"`

	Sidecar string `yaml:"sidecar"`

	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Subject  string `yaml:"subject"`
	Keywords string `yaml:"keywords"`

	TesseractTimeoutSec int    `yaml:"tesseract_timeout"`
	PageSegMode         int    `yaml:"tesseract_pagesegmode"`
	OEM                 int    `yaml:"tesseract_oem"`
	TessConfigs         string `yaml:"tesseract_config"` // comma-separated tesseract config file names, e.g. "hocr,txt"

	SkipBigMegapixels float64 `yaml:"skip_big"`
	Jobs              int     `yaml:"jobs"`
	Pages             string  `yaml:"pages"`

	DocAIProjectID   string `yaml:"docai_project_id"`
	DocAILocation    string `yaml:"docai_location"`
	DocAIProcessorID string `yaml:"docai_processor_id"` // empty keeps the default tesseract engine
	DocAIDebugDoc    string `yaml:"docai_debug_doc"` // non-empty enables a per-page <image>.debug.json dump of the Document AI result
}

// Defaults returns a PipelineConfig with the CLI's documented defaults.
func Defaults() *PipelineConfig {
	return &PipelineConfig{
		OutputType:          "pdfa",
		TesseractTimeoutSec: 180,
		PageSegMode:         -1,
		OEM:                 -1,
		RotateThreshold:     14.0,
		Languages:           "eng",
		DocAIProjectID:      os.Getenv("TEXTGRAFT_DOCAI_PROJECT_ID"),
		DocAILocation:       os.Getenv("TEXTGRAFT_DOCAI_LOCATION"),
		DocAIProcessorID:    os.Getenv("TEXTGRAFT_DOCAI_PROCESSOR_ID"),
	}
}

// LoadFile reads a YAML config file into cfg, leaving fields the file
// doesn't mention at their current value.
func LoadFile(cfg *PipelineConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInputFile, "read config file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return ocrerr.Wrap(ocrerr.KindBadArgs, "parse config file", err)
	}
	return nil
}

// RegisterFlags binds every CLI flag to cfg, using cfg's current values
// (its zero value, or whatever LoadFile already populated) as the flags'
// defaults. Call this AFTER LoadFile so that flags explicitly passed on
// the command line are the only thing capable of overriding the file.
func RegisterFlags(fs *pflag.FlagSet, cfg *PipelineConfig) {
	fs.BoolVar(&cfg.ForceOCR, "force-ocr", cfg.ForceOCR, "rasterize every page and OCR it, discarding any existing text/vector content")
	fs.BoolVar(&cfg.SkipText, "skip-text", cfg.SkipText, "skip OCR on pages that already contain text, keep the rest untouched")
	fs.BoolVar(&cfg.RedoOCR, "redo-ocr", cfg.RedoOCR, "redo OCR on pages with an existing text layer, keep other content")

	fs.BoolVarP(&cfg.Deskew, "deskew", "d", cfg.Deskew, "deskew pages before OCR")
	fs.BoolVarP(&cfg.Clean, "clean", "c", cfg.Clean, "clean pages before OCR with an external cleaner")
	fs.BoolVarP(&cfg.CleanFinal, "clean-final", "i", cfg.CleanFinal, "use the cleaned image in the final output, not just for OCR")
	fs.BoolVar(&cfg.RemoveBackground, "remove-background", cfg.RemoveBackground, "remove background from pages before OCR")
	fs.BoolVarP(&cfg.RotatePages, "rotate-pages", "r", cfg.RotatePages, "auto-correct page orientation before OCR")
	fs.Float64Var(&cfg.RotateThreshold, "rotate-pages-threshold", cfg.RotateThreshold, "confidence threshold below which a detected rotation is ignored")
	fs.Float64Var(&cfg.Oversample, "oversample", cfg.Oversample, "rasterize at this DPI regardless of the input image's own DPI (0 disables)")
	fs.StringVar(&cfg.CleanerPath, "cleaner-path", cfg.CleanerPath, "path to the external page-cleaner binary (e.g. unpaper)")

	fs.StringVarP(&cfg.Languages, "language", "l", cfg.Languages, "OCR language(s), '+'-joined, e.g. eng+deu")

	fs.StringVar(&cfg.OutputType, "output-type", cfg.OutputType, "pdfa, pdfa-1, pdfa-2, pdfa-3, pdf, or none")

	fs.StringVar(&cfg.Sidecar, "sidecar", cfg.Sidecar, "write the recognized text to this path ('-' for stdout); empty disables")

	fs.StringVar(&cfg.Title, "title", cfg.Title, "override the output PDF's Title")
	fs.StringVar(&cfg.Author, "author", cfg.Author, "override the output PDF's Author")
	fs.StringVar(&cfg.Subject, "subject", cfg.Subject, "override the output PDF's Subject")
	fs.StringVar(&cfg.Keywords, "keywords", cfg.Keywords, "override the output PDF's Keywords")

	fs.IntVar(&cfg.TesseractTimeoutSec, "tesseract-timeout", cfg.TesseractTimeoutSec, "per-page OCR timeout in seconds")
	fs.IntVar(&cfg.PageSegMode, "tesseract-pagesegmode", cfg.PageSegMode, "tesseract --psm override (-1 leaves tesseract's default)")
	fs.IntVar(&cfg.OEM, "tesseract-oem", cfg.OEM, "tesseract --oem override (-1 leaves tesseract's default)")
	fs.StringVar(&cfg.TessConfigs, "tesseract-config", cfg.TessConfigs, "comma-separated tesseract config file names passed through to the tesseract invocation")

	fs.Float64Var(&cfg.SkipBigMegapixels, "skip-big", cfg.SkipBigMegapixels, "skip OCR on pages whose images exceed this many megapixels (0 disables)")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "maximum worker count (0 uses CPU count)")
	fs.StringVar(&cfg.Pages, "pages", cfg.Pages, "page ranges to process, e.g. 1-3,5,7- (1-based)")

	fs.StringVar(&cfg.DocAIProjectID, "docai-project-id", cfg.DocAIProjectID, "Google Cloud project ID; switches the OCR engine to Document AI when set along with --docai-location and --docai-processor-id")
	fs.StringVar(&cfg.DocAILocation, "docai-location", cfg.DocAILocation, "Document AI processor location, e.g. us or eu")
	fs.StringVar(&cfg.DocAIProcessorID, "docai-processor-id", cfg.DocAIProcessorID, "Document AI processor ID")
	fs.StringVar(&cfg.DocAIDebugDoc, "docai-debug-doc", cfg.DocAIDebugDoc, "when using Document AI, also write each page's structured response as <image>.debug.json")
}

// UseDocAI reports whether enough Document AI configuration was provided to
// select it as the OCR engine in place of tesseract.
func (cfg *PipelineConfig) UseDocAI() bool {
	return cfg.DocAIProjectID != "" && cfg.DocAILocation != "" && cfg.DocAIProcessorID != ""
}

// Validate enforces the CLI's static invariants: OCR-mode exclusivity and
// a well-formed --pages expression. It does not touch the filesystem.
func (cfg *PipelineConfig) Validate() error {
	modes := 0
	for _, b := range []bool{cfg.ForceOCR, cfg.SkipText, cfg.RedoOCR} {
		if b {
			modes++
		}
	}
	if modes > 1 {
		return ocrerr.New(ocrerr.KindBadArgs, "--force-ocr, --skip-text, and --redo-ocr are mutually exclusive")
	}
	if cfg.Pages != "" {
		if _, err := ParsePageRanges(cfg.Pages); err != nil {
			return err
		}
	}
	if _, err := ParseOutputType(cfg.OutputType); err != nil {
		return err
	}
	return nil
}

// Mode derives the pdfmodel.PageMode the classifier runs under.
func (cfg *PipelineConfig) Mode() pdfmodel.PageMode {
	switch {
	case cfg.ForceOCR:
		return pdfmodel.ModeForceOCR
	case cfg.SkipText:
		return pdfmodel.ModeSkipText
	case cfg.RedoOCR:
		return pdfmodel.ModeRedoOCR
	default:
		return pdfmodel.ModeNormal
	}
}

// LanguageList splits the '+'-joined --language value.
func (cfg *PipelineConfig) LanguageList() []string {
	if cfg.Languages == "" {
		return nil
	}
	return strings.Split(cfg.Languages, "+")
}

// TessConfigsList splits the comma-separated --tesseract-config value.
func (cfg *PipelineConfig) TessConfigsList() []string {
	if cfg.TessConfigs == "" {
		return nil
	}
	return strings.Split(cfg.TessConfigs, ",")
}

// ParseOutputType maps the --output-type string to metafinish.OutputType.
func ParseOutputType(s string) (metafinish.OutputType, error) {
	switch s {
	case "", "pdfa":
		return metafinish.OutputPDFA2, nil
	case "pdfa-1":
		return metafinish.OutputPDFA1, nil
	case "pdfa-2":
		return metafinish.OutputPDFA2, nil
	case "pdfa-3":
		return metafinish.OutputPDFA3, nil
	case "pdf":
		return metafinish.OutputPDF, nil
	case "none":
		return metafinish.OutputNone, nil
	default:
		return 0, ocrerr.New(ocrerr.KindBadArgs, fmt.Sprintf("unknown --output-type %q", s))
	}
}

// ParsePageRanges parses the comma-separated "N" or "M-N" page-range
// syntax into 1-based PageRange values. A bare "-" is rejected; "N-"
// means "N through the last page" and is represented here by a PageRange
// with OpenEnded set, which Expand resolves once the page count is
// known. Reversed ranges (M > N) are accepted
// with a warning left to the caller to log, matching the
// warned-but-allowed monotonicity contract.
func ParsePageRanges(spec string) (ranges []PageRange, err error) {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "-" {
			return nil, ocrerr.New(ocrerr.KindBadArgs, "--pages: a bare '-' is not a valid range")
		}
		if idx := strings.Index(part, "-"); idx >= 0 {
			loStr, hiStr := part[:idx], part[idx+1:]
			lo, err := strconv.Atoi(loStr)
			if err != nil || lo < 1 {
				return nil, ocrerr.New(ocrerr.KindBadArgs, fmt.Sprintf("--pages: invalid range %q", part))
			}
			if hiStr == "" {
				ranges = append(ranges, PageRange{Lo: lo, OpenEnded: true})
				continue
			}
			hi, err := strconv.Atoi(hiStr)
			if err != nil || hi < 1 {
				return nil, ocrerr.New(ocrerr.KindBadArgs, fmt.Sprintf("--pages: invalid range %q", part))
			}
			ranges = append(ranges, PageRange{Lo: lo, Hi: hi})
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, ocrerr.New(ocrerr.KindBadArgs, fmt.Sprintf("--pages: invalid page number %q", part))
		}
		ranges = append(ranges, PageRange{Lo: n, Hi: n})
	}
	return ranges, nil
}

// PageRange is one comma-separated --pages element.
type PageRange struct {
	Lo, Hi    int
	OpenEnded bool // true for "N-": extends to the last page
}

// Expand turns parsed ranges into a page-membership set once the
// document's page count is known.
func Expand(ranges []PageRange, pageCount int) map[int]bool {
	if ranges == nil {
		return nil
	}
	set := make(map[int]bool)
	for _, r := range ranges {
		lo, hi := r.Lo, r.Hi
		if r.OpenEnded {
			hi = pageCount
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		for p := lo; p <= hi && p <= pageCount; p++ {
			set[p] = true
		}
	}
	return set
}
