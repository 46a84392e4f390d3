package cleanup

import (
	"image"

	"billnorm/internal/domain"
)

// contentVarianceThreshold separates blank bands from bands carrying print.
const contentVarianceThreshold = 100.0

// StripAnalyzer extracts statistical descriptors of the top and bottom bands
// of a page image.
type StripAnalyzer struct {
	headerRatio float64
	footerRatio float64
}

// NewStripAnalyzer creates a StripAnalyzer with the given band heights as
// fractions of the page height.
func NewStripAnalyzer(headerRatio, footerRatio float64) *StripAnalyzer {
	return &StripAnalyzer{headerRatio: headerRatio, footerRatio: footerRatio}
}

// TopStrip analyzes the header band, rows [0, h*headerRatio).
func (a *StripAnalyzer) TopStrip(img *image.Gray) domain.StripData {
	h := img.Bounds().Dy()
	rows := int(float64(h) * a.headerRatio)
	return analyzeBand(img, 0, rows, domain.NormalizedBBox{
		X: 0, Y: 0, Width: 1, Height: a.headerRatio,
	})
}

// BottomStrip analyzes the footer band, rows [h*(1-footerRatio), h).
func (a *StripAnalyzer) BottomStrip(img *image.Gray) domain.StripData {
	h := img.Bounds().Dy()
	start := int(float64(h) * (1 - a.footerRatio))
	return analyzeBand(img, start, h, domain.NormalizedBBox{
		X: 0, Y: 1 - a.footerRatio, Width: 1, Height: a.footerRatio,
	})
}

// analyzeBand computes mean and variance of the gray values in rows
// [rowStart, rowEnd). A band is considered to have content when its variance
// exceeds the threshold: uniform paper is flat, print is not.
func analyzeBand(img *image.Gray, rowStart, rowEnd int, bbox domain.NormalizedBBox) domain.StripData {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if rowEnd > h {
		rowEnd = h
	}
	if rowStart < 0 {
		rowStart = 0
	}

	var sum float64
	n := 0
	for y := rowStart; y < rowEnd; y++ {
		for x := 0; x < w; x++ {
			sum += float64(img.GrayAt(x, y).Y)
			n++
		}
	}
	if n == 0 {
		return domain.StripData{BBox: bbox}
	}
	mean := sum / float64(n)

	var varSum float64
	for y := rowStart; y < rowEnd; y++ {
		for x := 0; x < w; x++ {
			d := float64(img.GrayAt(x, y).Y) - mean
			varSum += d * d
		}
	}
	variance := varSum / float64(n)

	return domain.StripData{
		BBox:          bbox,
		MeanIntensity: mean,
		Variance:      variance,
		HasContent:    variance > contentVarianceThreshold,
	}
}
