package imaging

import (
	"image"
	"math"
)

// Line is a detected line in polar form. AngleDeg is the orientation of the
// line itself in [0,180): a horizontal line has an angle near 0 or 180, a
// vertical line near 90.
type Line struct {
	AngleDeg float64
	Rho      float64
	Votes    int
}

// thetaStepDeg is the Hough angular resolution. Half-degree bins keep skew
// estimates usable below the 0.5 degree deskew cutoff.
const thetaStepDeg = 0.5

// DetectLines runs a Hough line-voting pass over a binary edge map and
// returns the accumulator peaks with at least minVotes votes. Peaks must be
// local maxima of their 3x3 accumulator neighborhood so one physical line
// yields one result.
func DetectLines(edges *image.Gray, minVotes int) []Line {
	w, h := edges.Bounds().Dx(), edges.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil
	}

	diag := math.Hypot(float64(w), float64(h))
	nTheta := int(180 / thetaStepDeg)
	nRho := 2*int(diag) + 1

	sins := make([]float64, nTheta)
	coss := make([]float64, nTheta)
	for t := 0; t < nTheta; t++ {
		rad := float64(t) * thetaStepDeg * math.Pi / 180
		sins[t] = math.Sin(rad)
		coss[t] = math.Cos(rad)
	}

	acc := make([][]int32, nTheta)
	for t := range acc {
		acc[t] = make([]int32, nRho)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Pix[edges.PixOffset(x, y)] == 0 {
				continue
			}
			for t := 0; t < nTheta; t++ {
				rho := float64(x)*coss[t] + float64(y)*sins[t]
				r := int(rho) + int(diag)
				if r >= 0 && r < nRho {
					acc[t][r]++
				}
			}
		}
	}

	var lines []Line
	for t := 0; t < nTheta; t++ {
		for r := 0; r < nRho; r++ {
			v := acc[t][r]
			if int(v) < minVotes {
				continue
			}
			if !isLocalMax(acc, t, r, nTheta, nRho, v) {
				continue
			}
			theta := float64(t) * thetaStepDeg
			// theta is the normal direction; the line itself runs 90 degrees away.
			angle := math.Mod(theta+90, 180)
			lines = append(lines, Line{
				AngleDeg: angle,
				Rho:      float64(r) - diag,
				Votes:    int(v),
			})
		}
	}
	return lines
}

func isLocalMax(acc [][]int32, t, r, nTheta, nRho int, v int32) bool {
	for dt := -1; dt <= 1; dt++ {
		for dr := -1; dr <= 1; dr++ {
			if dt == 0 && dr == 0 {
				continue
			}
			tt, rr := t+dt, r+dr
			if tt < 0 || tt >= nTheta || rr < 0 || rr >= nRho {
				continue
			}
			n := acc[tt][rr]
			if n > v {
				return false
			}
			// Flat plateaus: keep only the lowest-index cell.
			if n == v && (tt < t || (tt == t && rr < r)) {
				return false
			}
		}
	}
	return true
}

// IsHorizontal reports whether the line angle is within tolerance degrees of
// 0 or 180.
func (l Line) IsHorizontal(tolerance float64) bool {
	return l.AngleDeg <= tolerance || l.AngleDeg >= 180-tolerance
}

// IsVertical reports whether the line angle is within tolerance degrees of
// 90 or 270.
func (l Line) IsVertical(tolerance float64) bool {
	a := math.Mod(l.AngleDeg, 180)
	return math.Abs(a-90) <= tolerance
}
