package cleanup

import (
	"fmt"
	"image"
	"log"

	"billnorm/internal/domain"
)

// Config holds repetitive-strip detection settings.
type Config struct {
	HeaderStripHeight   float64
	FooterStripHeight   float64
	SimilarityThreshold float64
	BaseConfidence      float64
	MaxConfidenceBoost  float64
	IoUThreshold        float64
}

// DefaultConfig returns the standard strip detection settings.
func DefaultConfig() Config {
	return Config{
		HeaderStripHeight:   0.08,
		FooterStripHeight:   0.08,
		SimilarityThreshold: 0.85,
		BaseConfidence:      0.65,
		MaxConfidenceBoost:  0.25,
		IoUThreshold:        0.7,
	}
}

// Detector finds header/footer regions that repeat across a document's pages.
// Page 1 is the fixed reference for cross-page comparison; a document whose
// first page is atypical (a cover page) will under-detect. Known limitation.
type Detector struct {
	cfg    Config
	strips *StripAnalyzer
}

// NewDetector creates a Detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:    cfg,
		strips: NewStripAnalyzer(cfg.HeaderStripHeight, cfg.FooterStripHeight),
	}
}

// DetectMultiPageStrips compares header and footer bands across all pages and
// emits exclusion shields for bands that carry content and repeat. Requires
// every page image of the document: this is the fan-in step after per-page
// orientation.
func (d *Detector) DetectMultiPageStrips(pages []*image.Gray) *domain.MultiPageStripResult {
	result := &domain.MultiPageStripResult{PagesAnalyzed: len(pages)}
	if len(pages) == 0 {
		return result
	}

	headers := make([]domain.StripData, len(pages))
	footers := make([]domain.StripData, len(pages))
	for i, p := range pages {
		headers[i] = d.strips.TopStrip(p)
		footers[i] = d.strips.BottomStrip(p)
	}

	result.HeaderMatchCount = d.countMatches(headers)
	result.FooterMatchCount = d.countMatches(footers)

	if shield := d.buildShield(domain.ShieldRepetitiveHeader, headers[0], result.HeaderMatchCount, len(pages)); shield != nil {
		result.Shields = append(result.Shields, *shield)
	}
	if shield := d.buildShield(domain.ShieldRepetitiveFooter, footers[0], result.FooterMatchCount, len(pages)); shield != nil {
		result.Shields = append(result.Shields, *shield)
	}

	log.Printf("cleanup.Detector: %d pages analyzed — header matches %d, footer matches %d, shields %d",
		len(pages), result.HeaderMatchCount, result.FooterMatchCount, len(result.Shields))
	return result
}

// countMatches counts pages whose strip is similar to page 1's strip. The
// count includes the reference page itself, so 1 means nothing else matched.
func (d *Detector) countMatches(strips []domain.StripData) int {
	ref := strips[0]
	count := 0
	for _, s := range strips {
		if StripsAreSimilar(ref, s, d.cfg.SimilarityThreshold) {
			count++
		}
	}
	return count
}

// buildShield emits a shield only when the band repeats (matchCount > 1) and
// the reference band carries content — a blank band suppresses nothing.
func (d *Detector) buildShield(t domain.ShieldType, ref domain.StripData, matchCount, totalPages int) *domain.CleanupShield {
	if matchCount <= 1 || !ref.HasContent {
		return nil
	}
	boost := CalculateConfidenceBoost(matchCount, totalPages, d.cfg.MaxConfidenceBoost)
	confidence := d.cfg.BaseConfidence + boost
	if confidence > 1.0 {
		confidence = 1.0
	}
	return &domain.CleanupShield{
		ShieldType: t,
		BBox:       ref.BBox,
		Confidence: confidence,
		WhyDetected: fmt.Sprintf("repetitive %s band on %d/%d pages (mean=%.1f var=%.1f)",
			bandName(t), matchCount, totalPages, ref.MeanIntensity, ref.Variance),
	}
}

func bandName(t domain.ShieldType) string {
	if t == domain.ShieldRepetitiveFooter {
		return "footer"
	}
	return "header"
}

// StripsAreSimilar decides whether two bands show the same region. Two blank
// bands are always similar; a blank and a printed band never are. Otherwise
// similarity blends intensity closeness and variance ratio, and passes at or
// above the threshold exactly — no extra tolerance.
func StripsAreSimilar(a, b domain.StripData, threshold float64) bool {
	if !a.HasContent && !b.HasContent {
		return true
	}
	if a.HasContent != b.HasContent {
		return false
	}

	meanSimilarity := 1 - absf(a.MeanIntensity-b.MeanIntensity)/255

	varianceRatio := 1.0
	minVar, maxVar := a.Variance, b.Variance
	if minVar > maxVar {
		minVar, maxVar = maxVar, minVar
	}
	if maxVar > 0 {
		varianceRatio = minVar / maxVar
	}

	similarity := (meanSimilarity + varianceRatio) / 2
	return similarity >= threshold
}

// CalculateConfidenceBoost returns the recurrence boost for a shield seen on
// matchCount of totalPages pages. Single-page documents and single-page
// matches get no boost.
func CalculateConfidenceBoost(matchCount, totalPages int, maxBoost float64) float64 {
	if totalPages <= 1 || matchCount <= 1 {
		return 0
	}
	return float64(matchCount) / float64(totalPages) * maxBoost
}

// BoostMultiPageConfidence generalizes the header/footer recurrence logic to
// arbitrary pre-detected shields. For each shield on page 1, matching shields
// (same type, IoU at or above the threshold) are counted across the remaining
// pages and the same boost formula applies. With zero or one page the page-1
// shields pass through unmodified.
func (d *Detector) BoostMultiPageConfidence(pageShields [][]domain.CleanupShield) []domain.CleanupShield {
	if len(pageShields) == 0 {
		return nil
	}
	reference := pageShields[0]
	if len(pageShields) == 1 {
		return reference
	}

	totalPages := len(pageShields)
	boosted := make([]domain.CleanupShield, 0, len(reference))
	for _, ref := range reference {
		matchCount := 1
		for _, shields := range pageShields[1:] {
			if hasSimilarShieldOnPage(ref, shields, d.cfg.IoUThreshold) {
				matchCount++
			}
		}

		s := ref
		boost := CalculateConfidenceBoost(matchCount, totalPages, d.cfg.MaxConfidenceBoost)
		s.Confidence = ref.Confidence + boost
		if s.Confidence > 1.0 {
			s.Confidence = 1.0
		}
		s.WhyDetected = fmt.Sprintf("%s (found on %d/%d pages)", ref.WhyDetected, matchCount, totalPages)
		boosted = append(boosted, s)
	}
	return boosted
}

// hasSimilarShieldOnPage reports whether any shield on the page refers to the
// same region as ref: same shield type and IoU at or above the threshold.
func hasSimilarShieldOnPage(ref domain.CleanupShield, shields []domain.CleanupShield, iouThreshold float64) bool {
	for _, s := range shields {
		if s.ShieldType == ref.ShieldType && ref.BBox.IoU(s.BBox) >= iouThreshold {
			return true
		}
	}
	return false
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
