// Package resplan implements the Resolution Planner: given a page's image
// inventory and vector presence, it computes the DPI at which the page
// should be rasterized.
package resplan

import "github.com/textgraft/textgraft/pkg/pdfmodel"

// VectorPageDPI is the minimum DPI for pages with vector content; a higher
// image DPI or oversample value still wins.
const VectorPageDPI = 400

// Plan is the Resolution Planner's output for one page.
type Plan struct {
	PageDPIX, PageDPIY float64
	SquareDPI          float64
}

// Compute computes page DPI for rasterization given a page's inspected state
// and the user's oversample request (0 disables oversampling).
func Compute(pi pdfmodel.PageInfo, oversample float64) Plan {
	var rasterX, rasterY float64
	for _, img := range pi.Images {
		if img.DPIExcluded {
			continue
		}
		if img.DPIX > rasterX && !isInf(img.DPIX) {
			rasterX = img.DPIX
		}
		if img.DPIY > rasterY && !isInf(img.DPIY) {
			rasterY = img.DPIY
		}
	}

	vectorFallback := 0.0
	if pi.HasVector == pdfmodel.HasVectorYes {
		vectorFallback = VectorPageDPI
	}

	pageDPIX := max3(rasterX*pi.UserUnit, vectorFallback, oversample)
	pageDPIY := max3(rasterY*pi.UserUnit, vectorFallback, oversample)

	return Plan{
		PageDPIX:  pageDPIX,
		PageDPIY:  pageDPIY,
		SquareDPI: max2(pageDPIX, pageDPIY),
	}
}

func max3(a, b, c float64) float64 { return max2(max2(a, b), c) }
func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func isInf(f float64) bool { return f > 1e300 }
