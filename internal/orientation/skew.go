package orientation

import (
	"image"
	"sort"

	"billnorm/internal/imaging"
)

// deskewCutoff is the absolute skew angle below which deskew is skipped.
const deskewCutoff = 0.5

// SkewCorrector detects residual skew on an already-oriented page and applies
// a compensating rotation.
type SkewCorrector struct {
	maxSkewAngle float64
}

// NewSkewCorrector creates a SkewCorrector that clamps detected skew to
// ±maxSkewAngle degrees.
func NewSkewCorrector(maxSkewAngle float64) *SkewCorrector {
	return &SkewCorrector{maxSkewAngle: maxSkewAngle}
}

// DetectSkew estimates the page's skew in degrees from the angles of
// near-horizontal lines. The median is used so a few spurious lines cannot
// drag the estimate. Returns 0 when no near-horizontal lines are found.
func (s *SkewCorrector) DetectSkew(img *image.Gray) float64 {
	small := imaging.Downsample(img, maxAnalysisDim)
	edges := imaging.DetectEdges(small)
	lines := imaging.DetectLines(edges, minVotes(small))

	var angles []float64
	for _, l := range lines {
		if !l.IsHorizontal(lineAngleTolerance) {
			continue
		}
		a := l.AngleDeg
		if a > 90 {
			a -= 180
		}
		angles = append(angles, a)
	}
	if len(angles) == 0 {
		return 0
	}

	sort.Float64s(angles)
	skew := angles[len(angles)/2]

	if skew > s.maxSkewAngle {
		skew = s.maxSkewAngle
	} else if skew < -s.maxSkewAngle {
		skew = -s.maxSkewAngle
	}
	return skew
}

// Correct applies a compensating rotation of -skew around the image center.
// Skews at or below the cutoff pass the image through unchanged; the bool
// reports whether deskew was applied.
func (s *SkewCorrector) Correct(img *image.Gray, skew float64) (*image.Gray, bool) {
	if abs(skew) <= deskewCutoff {
		return img, false
	}
	return imaging.RotateArbitrary(img, -skew), true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
