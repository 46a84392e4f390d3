package orientation

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"billnorm/internal/domain"
	"billnorm/internal/imaging"
)

// Service orchestrates rotation scoring and skew correction for a single
// page, writing the corrected image to disk.
type Service struct {
	evaluator *Evaluator
	skew      *SkewCorrector
	cfg       Config
}

// NewService creates an orientation Service.
func NewService(cfg Config) *Service {
	return &Service{
		evaluator: NewEvaluator(),
		skew:      NewSkewCorrector(cfg.MaxSkewAngle),
		cfg:       cfg,
	}
}

// DetectAndCorrect detects the best right-angle rotation and residual skew of
// the page image at imagePath, writes the corrected image under outputDir,
// and returns the orientation evidence. The caller applies the result to its
// page artifact explicitly via OrientationResult.ApplyTo.
//
// I/O failures and invalid rotations are fatal for the page; no partial
// result is returned.
func (s *Service) DetectAndCorrect(pageID uuid.UUID, imagePath, outputDir string) (*domain.OrientationResult, error) {
	start := time.Now()

	img, err := imaging.Load(imagePath)
	if err != nil {
		return nil, err
	}

	scores, err := s.evaluator.ScoreRotations(img)
	if err != nil {
		return nil, fmt.Errorf("scoring rotations for page %s: %w", pageID, err)
	}

	best, second := pickBest(scores)

	rotated, err := imaging.Rotate(img, best.Angle)
	if err != nil {
		return nil, fmt.Errorf("applying rotation %d to page %s: %w", best.Angle, pageID, err)
	}

	skewAngle := s.skew.DetectSkew(rotated)
	corrected := rotated
	deskewApplied := false
	if s.cfg.EnableDeskew {
		corrected, deskewApplied = s.skew.Correct(rotated, skewAngle)
	}

	// The filename is a compatibility contract: consumers grep for it when
	// auditing a page's correction history.
	filename := fmt.Sprintf("corrected_%s_rot%d_skew%.1f.png", pageID, best.Angle, skewAngle)
	outPath := filepath.Join(outputDir, filename)
	if err := imaging.Save(corrected, outPath); err != nil {
		return nil, fmt.Errorf("saving corrected page %s: %w", pageID, err)
	}

	confidence := computeConfidence(best, second)
	if confidence < s.cfg.MinConfidence {
		log.Printf("orientation.Service: page %s below confidence threshold (%.2f < %.2f), flag for review",
			pageID, confidence, s.cfg.MinConfidence)
	}

	result := &domain.OrientationResult{
		Rotation:           best.Angle,
		Confidence:         confidence,
		SkewAngle:          skewAngle,
		DeskewApplied:      deskewApplied,
		CorrectedImagePath: outPath,
		Evidence: fmt.Sprintf(
			"rotation %d scored %.2f (h=%d v=%d density=%.2f); runner-up %d scored %.2f; skew %.1f deg",
			best.Angle, best.Score, best.HorizontalLines, best.VerticalLines, best.TextDensity,
			second.Angle, second.Score, skewAngle),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}

	log.Printf("orientation.Service: page %s corrected — rot=%d skew=%.1f deskew=%v conf=%.2f (%dms)",
		pageID, result.Rotation, result.SkewAngle, result.DeskewApplied, result.Confidence, result.ProcessingTimeMS)
	return result, nil
}

// pickBest returns the highest and second-highest scored rotations.
func pickBest(scores []domain.RotationScore) (best, second domain.RotationScore) {
	best = scores[0]
	for _, sc := range scores[1:] {
		if sc.Score > best.Score {
			best = sc
		}
	}
	first := true
	for _, sc := range scores {
		if sc.Angle == best.Angle {
			continue
		}
		if first || sc.Score > second.Score {
			second = sc
			first = false
		}
	}
	return best, second
}

// computeConfidence blends the winner's score, its margin over the runner-up,
// and the horizontal line count: a clear single winner with many horizontal
// lines is a reliably oriented page.
func computeConfidence(best, second domain.RotationScore) float64 {
	margin := best.Score - second.Score
	if margin < 0 {
		margin = 0
	}
	lineFactor := float64(best.HorizontalLines) / 20
	if lineFactor > 1 {
		lineFactor = 1
	}
	confidence := 0.5*best.Score + 0.3*margin + 0.2*lineFactor
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
