package orientation_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billnorm/internal/domain"
	"billnorm/internal/orientation"
)

// ruledPage returns a white page with black horizontal rules, the signature of
// upright printed text lines.
func ruledPage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 20; y < h-2; y += 20 {
		for x := 0; x < w; x++ {
			img.Pix[img.PixOffset(x, y)] = 0
			img.Pix[img.PixOffset(x, y+1)] = 0
		}
	}
	return img
}

func TestScoreRotations_AllFourReturned(t *testing.T) {
	e := orientation.NewEvaluator()
	scores, err := e.ScoreRotations(ruledPage(200, 160))
	require.NoError(t, err)
	require.Len(t, scores, 4)

	for i, rot := range domain.Rotations {
		assert.Equal(t, rot, scores[i].Angle)
		assert.GreaterOrEqual(t, scores[i].Score, 0.0)
		assert.LessOrEqual(t, scores[i].Score, 1.0)
	}
}

func TestScoreRotations_UprightBeatsSideways(t *testing.T) {
	e := orientation.NewEvaluator()
	scores, err := e.ScoreRotations(ruledPage(200, 160))
	require.NoError(t, err)

	byAngle := make(map[domain.Rotation]domain.RotationScore, 4)
	for _, s := range scores {
		byAngle[s.Angle] = s
	}

	// Horizontal rules stay horizontal at 0/180 and turn vertical at 90/270.
	assert.Greater(t, byAngle[domain.Rotate0].Score, byAngle[domain.Rotate90].Score)
	assert.Greater(t, byAngle[domain.Rotate180].Score, byAngle[domain.Rotate270].Score)
	assert.Greater(t, byAngle[domain.Rotate0].HorizontalLines, 0)
	assert.Equal(t, 0, byAngle[domain.Rotate0].VerticalLines)
	assert.Greater(t, byAngle[domain.Rotate90].VerticalLines, 0)
}

func TestScoreRotations_EmptyImage(t *testing.T) {
	e := orientation.NewEvaluator()
	_, err := e.ScoreRotations(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, domain.ErrEmptyImage)
}
