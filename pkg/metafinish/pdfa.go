package metafinish

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/textgraft/textgraft/pkg/ocrerr"
)

// convertToPDFA runs Ghostscript's pdfwrite device with the PDFA switch,
// mirroring ocrmypdf's _exec/ghostscript.py generate_pdfa: a fixed device
// and color-conversion policy, and the requested conformance part. The PDF
// is written to dstPath via -o, and Ghostscript's stdout is redirected to
// stderr (-sstdout=%stderr) so its diagnostics end up in the captured output.
func convertToPDFA(srcPath, dstPath, part string) error {
	args := []string{
		"-dQUIET", "-dBATCH", "-dNOPAUSE", "-dSAFER",
		"-dCompatibilityLevel=1.5",
		"-sDEVICE=pdfwrite",
		"-dAutoRotatePages=/None",
		"-sColorConversionStrategy=RGB",
		"-dPDFA=" + part,
		"-dPDFACompatibilityPolicy=1",
		"-o", dstPath,
		"-sstdout=%stderr",
		srcPath,
	}

	cmd := exec.Command("gs", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindPdfaConversionFailed, "ghostscript PDF/A conversion failed: "+string(out), err)
	}
	// Ghostscript does not reliably report PDF/A failures via exit code;
	// it prints an error line to stderr (captured above) even on exit 0.
	if strings.Contains(strings.ToLower(string(out)), "error") {
		return ocrerr.New(ocrerr.KindPdfaConversionFailed, "ghostscript reported an error during PDF/A conversion: "+string(out))
	}
	return nil
}

// claimsPDFA reports whether path carries a PDF/A OutputIntent marker.
// ocrmypdf's file_claims_pdfa opens the file with pikepdf and inspects
// pdf.open_metadata().pdfa_status; pdfcpu has no confirmed equivalent
// accessor anywhere in the retrieval pack, so this checks for the literal
// GTS_PDFA1 OutputIntent identifier Ghostscript's -dPDFA writer embeds,
// which is the same marker pikepdf's pdfa_status derivation ultimately
// keys off.
func claimsPDFA(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Contains(data, []byte("GTS_PDFA1")), nil
}
