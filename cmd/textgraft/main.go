// textgraft converts an input PDF (or a single scanned image) into a
// searchable output PDF by inserting an invisible OCR text layer behind
// each page's rendered content, optionally normalizing the result to
// PDF/A.
//
// Usage:
//
//	textgraft [flags] input_pdf_or_image output_pdf
//
// Both positional arguments accept "-" for stdin/stdout.
//
// Exit codes:
//
//	0 ok; 1 bad args; 2 input-file error; 3 missing dependency;
//	4 invalid output PDF; 5 file-access error; 6 prior-OCR found;
//	7 child process error; 8 encrypted PDF; 9 invalid tesseract config;
//	10 PDF/A conversion failed; 15 other; 130 interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/textgraft/textgraft/pkg/metafinish"
	"github.com/textgraft/textgraft/pkg/ocrengine/docai"
	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/pipeconfig"
	"github.com/textgraft/textgraft/pkg/pipeline"
	"github.com/textgraft/textgraft/pkg/textlog"
)

const programName = "textgraft"

// version is stamped via -ldflags at release build time; left as a plain
// default otherwise, matching the teacher's own unversioned binary.
var version = "dev"

func main() {
	cfg := pipeconfig.Defaults()
	var configFile string

	warnLog := textlog.New(os.Stderr, textlog.LevelInfo)

	root := &cobra.Command{
		Use:          programName + " [flags] input_pdf_or_image output_pdf",
		Short:        "Add a searchable OCR text layer to a PDF or scanned image",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				// Flags were parsed into cfg before the file is read; re-apply
				// the ones given on the command line so they win over the file.
				changed := map[string]string{}
				cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })
				if err := pipeconfig.LoadFile(cfg, configFile); err != nil {
					return err
				}
				for name, val := range changed {
					if err := cmd.Flags().Set(name, val); err != nil {
						return err
					}
				}
			}
			return run(cmd.Context(), args[0], args[1], cfg, warnLog)
		},
	}

	root.Flags().StringVar(&configFile, "config", "", "YAML config file; flags on the command line override it")
	pipeconfig.RegisterFlags(root.Flags(), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		if warnLog.HasWarnings() {
			os.Exit(ocrerr.KindOther.ExitCode())
		}
		os.Exit(0)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "textgraft: interrupted")
		os.Exit(ocrerr.KindInterrupted.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "textgraft: %v\n", err)
	os.Exit(ocrerr.ExitCode(err))
}

func run(ctx context.Context, inputPath, outputPath string, cfg *pipeconfig.PipelineConfig, log *textlog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	workDir, err := makeWorkDir()
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "create working directory", err)
	}

	outputType, err := pipeconfig.ParseOutputType(cfg.OutputType)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		WorkDir:             workDir,
		Mode:                cfg.Mode(),
		Languages:           cfg.LanguageList(),
		TesseractTimeoutSec: cfg.TesseractTimeoutSec,
		PageSegMode:         cfg.PageSegMode,
		OEM:                 cfg.OEM,
		TessConfigs:         cfg.TessConfigsList(),
		Deskew:              cfg.Deskew,
		Clean:               cfg.Clean,
		CleanFinal:          cfg.CleanFinal,
		CleanerPath:         cfg.CleanerPath,
		RemoveBackground:    cfg.RemoveBackground,
		RotatePages:         cfg.RotatePages,
		RotateThreshold:     cfg.RotateThreshold,
		Oversample:          cfg.Oversample,
		SkipBigMegapixels:   cfg.SkipBigMegapixels,
		MaxWorkers:          effectiveJobs(cfg.Jobs),
		SidecarPath:         cfg.Sidecar,
		Log:                 log,
		Metadata: metafinish.Options{
			ProgramName:    programName,
			ProgramVersion: version,
			Overrides: metafinish.Overrides{
				Title:    cfg.Title,
				Author:   cfg.Author,
				Subject:  cfg.Subject,
				Keywords: cfg.Keywords,
			},
			OutputType: outputType,
			Log:        log,
		},
	}

	engineName := "tesseract"
	if cfg.UseDocAI() {
		opts.Engine = docai.New(&docai.Config{
			ProjectID:    cfg.DocAIProjectID,
			Location:     cfg.DocAILocation,
			ProcessorID:  cfg.DocAIProcessorID,
			DebugDocPath: cfg.DocAIDebugDoc,
		})
		engineName = "docai"
	}
	opts.Metadata.EngineName = engineName

	if cfg.Pages != "" {
		ranges, err := pipeconfig.ParsePageRanges(cfg.Pages)
		if err != nil {
			return err
		}
		opts.PageFilter = pipeconfig.Expand(ranges, pageCountHint)
	}

	realInput, err := resolveStdin(inputPath, workDir)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, realInput, outputPath, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s: %d pages, %d OCRed, %d skipped\n", programName, result.PagesTotal, result.PagesOCRed, result.PagesSkipped)
	return nil
}

// pageCountHint is a placeholder page-count ceiling used only to bound an
// open-ended "N-" page range before the Inspector has actually run; the
// executor only looks up the pages the document actually has, so an
// overly generous hint here is harmless.
const pageCountHint = 1 << 20

// effectiveJobs maps the CLI's "0 means CPU count" convention onto a
// concrete worker ceiling.
func effectiveJobs(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	return defaultJobs()
}

// resolveStdin copies "-" input into a real file inside workDir so every
// downstream component can treat input uniformly as a path; "-" is the
// CLI's documented stdin sentinel (spec.md §6), not a shell convention the
// rest of the pipeline needs to special-case.
func resolveStdin(inputPath, workDir string) (string, error) {
	if inputPath != "-" {
		return inputPath, nil
	}
	dst := filepath.Join(workDir, "stdin-input")
	f, err := os.Create(dst)
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindOutputFileAccess, "stage stdin input", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, os.Stdin); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindInputFile, "read stdin", err)
	}
	return dst, nil
}

func makeWorkDir() (string, error) {
	return os.MkdirTemp("", "textgraft-"+uuid.NewString())
}

func defaultJobs() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
