package metafinish

import (
	"github.com/textgraft/textgraft/pkg/textlog"
)

// shouldLinearize mirrors ocrmypdf's _pipeline.py should_linearize: the
// linearize step runs only once the final file crosses the configured
// fast-web-view threshold.
func shouldLinearize(path string, fastWebViewMB float64) bool {
	if fastWebViewMB <= 0 {
		return false
	}
	return fileSizeMB(path) > fastWebViewMB
}

// linearize is meant to reorder a PDF's objects for fast first-page web
// viewing (pikepdf.save(linearize=True) in ocrmypdf). No linearization
// writer was found anywhere in the retrieval pack — legible's own pdfcpu
// wrapper notes "pdfcpu doesn't expose this directly" when describing the
// very same property — so this stage is a deliberate no-op: the file is
// passed through unchanged and a warning is logged rather than silently
// claiming a linearized layout that was never produced.
func linearize(srcPath, dstPath string, log *textlog.Logger) error {
	if log != nil {
		log.Warnf("fast web view requested but no PDF linearization writer is available; output left unlinearized")
	}
	return copyFile(srcPath, dstPath)
}
