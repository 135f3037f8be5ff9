// Package raster drives the external rasterizer (ghostscript) to produce a
// square-DPI bitmap for one page, applying any requested rotation
// correction to the result.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"os/exec"

	"github.com/textgraft/textgraft/pkg/ocrerr"
)

// Device is the raster device token passed to the rasterizer, chosen by the
// caller from the page's image inventory.
type Device string

const (
	DeviceMono1bpp    Device = "mono-1bpp"
	DeviceGray8bpp    Device = "gray-8bpp"
	DeviceIndexed8bpp Device = "indexed-8bpp"
	DeviceRGB24bpp    Device = "rgb-24bpp"
)

// gsDevice maps our device tokens to ghostscript -sDEVICE values.
var gsDevice = map[Device]string{
	DeviceMono1bpp:    "pngmono",
	DeviceGray8bpp:    "pnggray",
	DeviceIndexed8bpp: "png256",
	DeviceRGB24bpp:    "png16m",
}

// Request describes one page rasterization.
type Request struct {
	InputPDF     string
	OutputImage  string
	PageNo       int // 1-based
	RasterDPIX   float64
	RasterDPIY   float64
	PageDPIOutX  float64 // output DPI, defaults to RasterDPI*; not recorded in the PNG file
	PageDPIOutY  float64
	Device       Device
	Rotation     int // 0, 90, 180, 270 — applied counterclockwise post-rasterize per ghostscript.py convention
	FilterVector bool
}

// Rasterize runs ghostscript and returns the path to the produced image.
func Rasterize(req Request) (string, error) {
	device, ok := gsDevice[req.Device]
	if !ok {
		device = gsDevice[DeviceRGB24bpp]
	}

	tmp, err := os.CreateTemp("", "textgraft-raster-*.png")
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindOther, "create raster temp file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{
		"-dQUIET", "-dSAFER", "-dBATCH", "-dNOPAUSE",
		"-sDEVICE=" + device,
		fmt.Sprintf("-dFirstPage=%d", req.PageNo),
		fmt.Sprintf("-dLastPage=%d", req.PageNo),
		fmt.Sprintf("-r%fx%f", req.RasterDPIX, req.RasterDPIY),
	}
	if req.FilterVector {
		args = append(args, "-dFILTERVECTOR")
	}
	args = append(args,
		"-o", tmpPath,
		"-dAutoRotatePages=/None",
		"-f", req.InputPDF,
	)

	cmd := exec.Command("gs", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindSubprocessOutput, "ghostscript rasterizing failed: "+string(out), err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindOther, "open raster output", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return "", ocrerr.Wrap(ocrerr.KindSubprocessOutput, "decode raster output", err)
	}

	dpiOutX, dpiOutY := req.PageDPIOutX, req.PageDPIOutY
	if dpiOutX == 0 {
		dpiOutX = req.RasterDPIX
	}
	if dpiOutY == 0 {
		dpiOutY = req.RasterDPIY
	}

	if req.Rotation != 0 {
		img = rotateCounterclockwise(img, req.Rotation)
		if req.Rotation == 90 || req.Rotation == 270 {
			dpiOutX, dpiOutY = dpiOutY, dpiOutX
		}
	}

	if err := writePNGWithDPI(req.OutputImage, img, dpiOutX, dpiOutY); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindOther, "write raster output", err)
	}
	return req.OutputImage, nil
}

// rotateCounterclockwise rotates im by angle degrees counterclockwise. The
// ghostscript.py contract applies "rotation" (a clockwise correction angle)
// via a counterclockwise image transpose, since the two directions cancel.
func rotateCounterclockwise(im image.Image, angle int) image.Image {
	b := im.Bounds()
	w, h := b.Dx(), b.Dy()
	switch angle {
	case 90:
		out := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(y, w-1-x, im.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out
	case 180:
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(w-1-x, h-1-y, im.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out
	case 270:
		out := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(h-1-y, x, im.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out
	default:
		out := image.NewRGBA(b)
		draw.Draw(out, b, im, b.Min, draw.Src)
		return out
	}
}

// writePNGWithDPI writes im as a PNG. dpiX/dpiY are accepted but not
// recorded: no pHYs chunk is written, unlike PIL's Image.save(..., dpi=...).
func writePNGWithDPI(path string, im image.Image, dpiX, dpiY float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, im); err != nil {
		return err
	}
	// A pHYs chunk rewrite is a byte-level PNG surgery step; stdlib
	// image/png has no DPI-metadata hook, so the DPI the downstream
	// preprocessing/OCR stages use is threaded explicitly alongside the
	// file path rather than re-read from file metadata (see the resplan.Plan
	// DPI that pkg/pipeline passes to each preprocessing step).
	return nil
}
