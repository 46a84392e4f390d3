package orientation

import (
	"fmt"
	"image"

	"billnorm/internal/domain"
	"billnorm/internal/imaging"
)

const (
	// lineAngleTolerance classifies a line as horizontal/vertical when its
	// angle is within this many degrees of the axis.
	lineAngleTolerance = 15.0

	// maxAnalysisDim bounds the image size fed to edge/line detection.
	// Downsampling preserves angles, so the geometry thresholds still hold.
	maxAnalysisDim = 800

	// densityCap is the edge density treated as fully dense text.
	densityCap = 0.3
)

// Evaluator scores a page's readability under each right-angle rotation.
type Evaluator struct{}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// ScoreRotations evaluates all four rotations of img and returns one
// RotationScore per rotation, in 0/90/180/270 order. All four must evaluate
// or an error is returned; there is no partial result.
func (e *Evaluator) ScoreRotations(img *image.Gray) ([]domain.RotationScore, error) {
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, domain.ErrEmptyImage
	}
	small := imaging.Downsample(img, maxAnalysisDim)

	scores := make([]domain.RotationScore, 0, len(domain.Rotations))
	for _, rot := range domain.Rotations {
		rotated, err := imaging.Rotate(small, rot)
		if err != nil {
			return nil, fmt.Errorf("rotating by %d: %w", rot, err)
		}
		scores = append(scores, scoreImage(rotated, rot))
	}
	if len(scores) != len(domain.Rotations) {
		return nil, domain.ErrNoRotationScores
	}
	return scores, nil
}

func scoreImage(img *image.Gray, rot domain.Rotation) domain.RotationScore {
	edges := imaging.DetectEdges(img)
	lines := imaging.DetectLines(edges, minVotes(img))

	var horizontal, vertical int
	for _, l := range lines {
		switch {
		case l.IsHorizontal(lineAngleTolerance):
			horizontal++
		case l.IsVertical(lineAngleTolerance):
			vertical++
		}
	}

	density := imaging.EdgeDensity(edges)
	normDensity := density
	if normDensity > densityCap {
		normDensity = densityCap
	}
	normDensity /= densityCap

	score := 0.7*float64(horizontal)/float64(horizontal+vertical+1) + 0.3*normDensity
	if score > 1.0 {
		score = 1.0
	}

	return domain.RotationScore{
		Angle:           rot,
		Score:           score,
		HorizontalLines: horizontal,
		VerticalLines:   vertical,
		TextDensity:     normDensity,
	}
}

// minVotes scales the Hough vote threshold with the image: a line must span
// roughly a quarter of the smaller dimension.
func minVotes(img *image.Gray) int {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	d := w
	if h < d {
		d = h
	}
	v := d / 4
	if v < 20 {
		v = 20
	}
	return v
}
