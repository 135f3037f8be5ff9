// Package orient implements the Orientation Estimator: it runs the OCR
// engine in orientation-detection mode on a low-DPI preview image and
// decides whether a rotation correction should be applied at rasterization
// time.
package orient

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/textgraft/textgraft/pkg/textlog"
)

// DefaultRotateThreshold is the minimum confidence required before an
// estimated orientation correction is trusted.
const DefaultRotateThreshold = 14.0

// Result is the OCR engine's orientation-detection output.
type Result struct {
	AngleDeg   int // clockwise, one of {0, 90, 180, 270}
	Confidence float64
}

// Estimate runs tesseract's OSD (orientation and script detection) mode on
// previewImage and parses its stdout. A timeout or a "too few
// characters"/"image too large" failure is non-fatal and returns a zero
// Result, matching OCRmyPDF's get_orientation.
func Estimate(ctx context.Context, tesseractPath, previewImage string, timeout time.Duration, log *textlog.Logger) Result {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, tesseractPath, previewImage, "stdout", "--psm", "0")
	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return Result{}
	}
	if err != nil {
		lower := strings.ToLower(string(out))
		if strings.Contains(lower, "too few characters") || strings.Contains(lower, "image too large") {
			return Result{}
		}
		if log != nil {
			log.Warnf("orientation detection failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
		return Result{}
	}
	return parseOSD(out)
}

// parseOSD extracts "Orientation in degrees: <n>" and "Orientation
// confidence: <f>" from tesseract OSD stdout.
func parseOSD(out []byte) Result {
	var res Result
	for _, line := range bytes.Split(out, []byte("\n")) {
		parts := strings.SplitN(strings.TrimSpace(string(line)), ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "Orientation in degrees":
			if n, err := strconv.Atoi(val); err == nil {
				res.AngleDeg = normalizeAngle(n)
			}
		case "Orientation confidence":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				res.Confidence = f
			}
		}
	}
	return res
}

func normalizeAngle(n int) int {
	n %= 360
	if n < 0 {
		n += 360
	}
	return n
}

// Decide applies the confidence threshold: a correction is only trusted
// when confidence meets rotateThreshold and the angle is non-zero.
func Decide(r Result, rotateThreshold float64) (correctionDeg int, applied bool) {
	if r.AngleDeg == 0 {
		return 0, false
	}
	if r.Confidence < rotateThreshold {
		return 0, false
	}
	return r.AngleDeg, true
}
