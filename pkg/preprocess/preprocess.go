// Package preprocess implements the Preprocessing Chain: OCR-mask painting,
// background removal, deskew, and the external page-cleaner adapter. Each
// step reads the previous step's output image and passes through when
// disabled.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/nfnt/resize"

	"github.com/textgraft/textgraft/pkg/ocrerr"
	"github.com/textgraft/textgraft/pkg/pdfmodel"
)

// MaskMode selects which visible text gets painted over before OCR.
type MaskMode int

const (
	MaskNone  MaskMode = iota // force-ocr: no masking
	MaskRedo                  // redo-ocr: mask visible text, leave invisible text alone
)

// PaintOCRMask draws white rectangles over every visible text box's bbox
// (pixel coordinates, Y flipped since image origin is top-left and PDF
// origin is bottom-left) so the OCR engine only sees image content.
func PaintOCRMask(srcPath, dstPath string, textBoxes []pdfmodel.TextBox, mode MaskMode, pageHeightPt float64, dpi float64) error {
	if mode == MaskNone {
		return copyFile(srcPath, dstPath)
	}
	img, err := loadPNG(srcPath)
	if err != nil {
		return err
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	white := color.RGBA{255, 255, 255, 255}
	for _, tb := range textBoxes {
		if !tb.Visible {
			continue
		}
		x1 := int(tb.BBox.Left / 72 * dpi)
		x2 := int(tb.BBox.Right / 72 * dpi)
		y1 := int((pageHeightPt - tb.BBox.Top) / 72 * dpi)
		y2 := int((pageHeightPt - tb.BBox.Bottom) / 72 * dpi)
		rect := image.Rect(x1, y1, x2, y2).Intersect(b)
		draw.Draw(out, rect, &image.Uniform{C: white}, image.Point{}, draw.Src)
	}
	return savePNG(dstPath, out)
}

// RemoveBackground converts the image to gray and applies a gamma/TRC
// stretch with black 70 and white 190, the parameters of leptonica's
// remove_background; no tile-based background normalization is done first.
// Mono (1-bit) pages pass through unchanged since leptonica's background
// normalization operates on graylevel tiles.
func RemoveBackground(srcPath, dstPath string, bitsPerComponent int) error {
	if bitsPerComponent <= 1 {
		return copyFile(srcPath, dstPath)
	}
	img, err := loadPNG(srcPath)
	if err != nil {
		return err
	}
	b := img.Bounds()
	out := image.NewGray(b)
	const blackThreshold, whiteThreshold = 70, 190
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			out.SetGray(x, y, color.Gray{Y: gammaTRC(g, blackThreshold, whiteThreshold)})
		}
	}
	return savePNG(dstPath, out)
}

// gammaTRC stretches v so that values at or below black map to 0, values at
// or above white map to 255, linear in between — the tonal-reproduction
// curve leptonica's gamma_trc(1.0, black, white) applies.
func gammaTRC(v uint8, black, white uint8) uint8 {
	if v <= black {
		return 0
	}
	if v >= white {
		return 255
	}
	scaled := float64(v-black) / float64(white-black) * 255
	return uint8(math.Round(scaled))
}

// Deskew estimates and corrects page skew. reduction factor follows
// leptonica's rule: full resolution search below 150 DPI, downsampled
// search otherwise.
func Deskew(srcPath, dstPath string, dpi float64) (angleDeg float64, err error) {
	img, err := loadPNG(srcPath)
	if err != nil {
		return 0, err
	}
	reduction := 0
	if dpi < 150 {
		reduction = 1
	}
	angle := estimateSkewAngle(img, reduction)
	rotated := rotateSmallAngle(img, angle)
	if err := savePNG(dstPath, rotated); err != nil {
		return 0, err
	}
	return angle, nil
}

// estimateSkewAngle is a coarse projection-profile skew estimator: it scans
// candidate angles and picks the one maximizing the variance of row-wise
// dark-pixel counts (text lines are sharpest, i.e. highest variance, when
// the skew is corrected). reduction follows leptonica's convention: 1
// searches at full resolution; any other value (0 is leptonica's default)
// searches a halved-resolution copy, matching leptonica's
// reduced-resolution skew search used at 150 DPI and above.
func estimateSkewAngle(img image.Image, reduction int) float64 {
	search := img
	step := 0.1
	if reduction != 1 {
		b := img.Bounds()
		search = resize.Resize(uint(b.Dx()/2), uint(b.Dy()/2), img, resize.Bilinear)
		step = 0.25
	}
	bestAngle := 0.0
	bestScore := -1.0
	for a := -5.0; a <= 5.0; a += step {
		score := rowVarianceAtAngle(search, a)
		if score > bestScore {
			bestScore = score
			bestAngle = a
		}
	}
	return bestAngle
}

func rowVarianceAtAngle(img image.Image, angleDeg float64) float64 {
	b := img.Bounds()
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	h := b.Dy()
	counts := make([]int, h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x += 3 { // sample every 3rd column for speed
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if g < 128 {
				ry := int(float64(x)*sin + float64(y)*cos)
				if ry >= 0 && ry < h {
					counts[ry]++
				}
			}
		}
	}
	mean := 0.0
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(h)
	variance := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	return variance / float64(h)
}

func rotateSmallAngle(img image.Image, angleDeg float64) image.Image {
	if angleDeg == 0 {
		out := image.NewRGBA(img.Bounds())
		draw.Draw(out, img.Bounds(), img, img.Bounds().Min, draw.Src)
		return out
	}
	b := img.Bounds()
	theta := -angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	out := image.NewRGBA(b)
	white := color.RGBA{255, 255, 255, 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			srcX := int(cx + dx*cos - dy*sin)
			srcY := int(cy + dx*sin + dy*cos)
			if srcX >= b.Min.X && srcX < b.Max.X && srcY >= b.Min.Y && srcY < b.Max.Y {
				out.Set(x, y, img.At(srcX, srcY))
			} else {
				out.Set(x, y, white)
			}
		}
	}
	return out
}

// CleanArgsInjectionGuard rejects cleaner arguments containing a '/'
// character, the path-injection guard the spec calls out explicitly.
func CleanArgsInjectionGuard(args []string) error {
	for _, a := range args {
		if strings.Contains(a, "/") {
			return ocrerr.New(ocrerr.KindBadArgs, fmt.Sprintf("cleaner argument %q may not contain '/'", a))
		}
	}
	return nil
}

// Clean invokes the external page-cleaner (e.g. unpaper) on srcPath and
// writes the cleaned result to dstPath, round-tripping through a P6 PPM
// file whatever the image's mode, then back to PNG. dpi is not passed to
// the cleaner and no DPI is recorded in the PNG.
func Clean(cleanerPath, srcPath, dstPath string, extraArgs []string, dpi float64) error {
	if err := CleanArgsInjectionGuard(extraArgs); err != nil {
		return err
	}
	if _, err := exec.LookPath(cleanerPath); err != nil {
		return ocrerr.Wrap(ocrerr.KindMissingDependency, "page cleaner not found on PATH: "+cleanerPath, err)
	}

	ppmPath := srcPath + ".ppm"
	if err := convertPNGToPPM(srcPath, ppmPath); err != nil {
		return err
	}
	defer os.Remove(ppmPath)

	outPPM := dstPath + ".ppm"
	args := append([]string{}, extraArgs...)
	args = append(args, ppmPath, outPPM)
	cmd := exec.Command(cleanerPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindSubprocessOutput, "cleaner failed: "+string(out), err)
	}
	defer os.Remove(outPPM)

	return convertPPMToPNG(outPPM, dstPath)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindInputFile, "open image", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindInputFile, "decode image", err)
	}
	return img, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindOutputFileAccess, "create image", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return ocrerr.Wrap(ocrerr.KindInputFile, "read image", err)
	}
	return os.WriteFile(dst, data, 0o644)
}

func convertPNGToPPM(pngPath, ppmPath string) error {
	img, err := loadPNG(pngPath)
	if err != nil {
		return err
	}
	return writePPM(ppmPath, img)
}

func writePPM(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	b := img.Bounds()
	fmt.Fprintf(f, "P6\n%d %d\n255\n", b.Dx(), b.Dy())
	buf := make([]byte, 0, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		buf = buf[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func convertPPMToPNG(ppmPath, pngPath string) error {
	img, err := readPPM(ppmPath)
	if err != nil {
		return err
	}
	return savePNG(pngPath, img)
}

func readPPM(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindSubprocessOutput, "read cleaner output", err)
	}
	var magic string
	var w, h, maxv int
	n, err := fmt.Sscanf(string(data), "%s %d %d %d", &magic, &w, &h, &maxv)
	if err != nil || n != 4 {
		return nil, ocrerr.New(ocrerr.KindSubprocessOutput, "malformed PPM from cleaner")
	}
	headerLen := strings.Index(string(data), fmt.Sprintf("%d\n", maxv)) + len(fmt.Sprintf("%d\n", maxv))
	pixels := data[headerLen:]
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if i+3 > len(pixels) {
				break
			}
			img.Set(x, y, color.RGBA{pixels[i], pixels[i+1], pixels[i+2], 255})
			i += 3
		}
	}
	return img, nil
}
