package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NormalizedBBox is a bounding box with coordinates in [0,1] relative to the
// page dimensions, so regions compare across resolutions.
type NormalizedBBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the box has positive area and lies entirely within
// the unit square.
func (b NormalizedBBox) Valid() bool {
	return b.X >= 0 && b.Y >= 0 && b.Width > 0 && b.Height > 0 &&
		b.X+b.Width <= 1 && b.Y+b.Height <= 1
}

// IoU returns the intersection-over-union overlap ratio with other.
func (b NormalizedBBox) IoU(other NormalizedBBox) float64 {
	ix := max64(b.X, other.X)
	iy := max64(b.Y, other.Y)
	ix2 := min64(b.X+b.Width, other.X+other.Width)
	iy2 := min64(b.Y+b.Height, other.Y+other.Height)
	if ix2 <= ix || iy2 <= iy {
		return 0
	}
	inter := (ix2 - ix) * (iy2 - iy)
	union := b.Width*b.Height + other.Width*other.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// StripData holds the statistical descriptor of a horizontal band of a page.
// Derived per page per call; never persisted.
type StripData struct {
	BBox          NormalizedBBox `json:"bbox"`
	MeanIntensity float64        `json:"mean_intensity"`
	Variance      float64        `json:"variance"`
	HasContent    bool           `json:"has_content"`
}

// RotationScore is the readability score of one candidate rotation.
type RotationScore struct {
	Angle           Rotation `json:"angle"`
	Score           float64  `json:"score"`
	HorizontalLines int      `json:"horizontal_lines"`
	VerticalLines   int      `json:"vertical_lines"`
	TextDensity     float64  `json:"text_density"`
}

// OrientationResult is the outcome of orientation detection and deskew for a
// single page. The page artifact is updated only through ApplyTo, never as a
// side effect of detection.
type OrientationResult struct {
	Rotation           Rotation `json:"rotation"`
	Confidence         float64  `json:"confidence"`
	SkewAngle          float64  `json:"skew_angle"`
	DeskewApplied      bool     `json:"deskew_applied"`
	CorrectedImagePath string   `json:"corrected_image_path"`
	Evidence           string   `json:"evidence"`
	ProcessingTimeMS   int64    `json:"processing_time_ms"`
}

// ApplyTo writes the detection outcome back onto the caller-owned page artifact.
func (r *OrientationResult) ApplyTo(page *PageArtifact) {
	page.Rotation = r.Rotation
	page.RotationScore = r.Confidence
	page.ImagePath = r.CorrectedImagePath
}

// PageArtifact is one page of a document as it moves through the pipeline.
type PageArtifact struct {
	ID            uuid.UUID `json:"id"`
	PageNumber    int       `json:"page_number"`
	ImagePath     string    `json:"image_path"`
	Rotation      Rotation  `json:"rotation"`
	RotationScore float64   `json:"rotation_score"`
}

// CleanupShield marks a page region for exclusion from field-candidate
// extraction. Immutable once created; superseded, never mutated.
type CleanupShield struct {
	ShieldType  ShieldType     `json:"shield_type"`
	BBox        NormalizedBBox `json:"normalized_bbox"`
	Confidence  float64        `json:"confidence"`
	WhyDetected string         `json:"why_detected"`
}

// MultiPageStripResult is the outcome of repetitive-strip detection across a
// document's pages.
type MultiPageStripResult struct {
	Shields          []CleanupShield `json:"shields"`
	PagesAnalyzed    int             `json:"pages_analyzed"`
	HeaderMatchCount int             `json:"header_match_count"`
	FooterMatchCount int             `json:"footer_match_count"`
}

// Evidence is one piece of support behind a field candidate.
type Evidence struct {
	Type   EvidenceType `json:"type"`
	Weight float64      `json:"weight"`
	Detail string       `json:"detail,omitempty"`
}

// FieldCandidate is one externally-produced candidate value for a field,
// one per OCR/extraction pass.
type FieldCandidate struct {
	FieldName       string          `json:"field_name"`
	ValueRaw        string          `json:"value_raw"`
	ValueNormalized string          `json:"value_normalized,omitempty"`
	Score           int             `json:"score"`
	Evidence        []Evidence      `json:"evidence,omitempty"`
	Sources         []uuid.UUID     `json:"sources,omitempty"`
	BBox            *NormalizedBBox `json:"bbox,omitempty"`
}

/// Key returns the value the candidate is grouped by for consensus: the
// normalized value when present, the raw value otherwise.
func (c *FieldCandidate) Key() string {
	if c.ValueNormalized != "" {
		return c.ValueNormalized
	}
	return c.ValueRaw
}

// FieldValue is the resolved value of one field.
type FieldValue struct {
	FieldName     string           `json:"field_name"`
	Value         string           `json:"value"`
	Normalized    string           `json:"normalized,omitempty"`
	Confidence    int              `json:"confidence"`
	ChosenSources []uuid.UUID      `json:"chosen_sources,omitempty"`
	Alternatives  []FieldCandidate `json:"alternatives,omitempty"`
	Flags         []string         `json:"flags,omitempty"`
	Explanation   string           `json:"explanation"`
}

// HasFlag reports whether the resolved field carries the given flag.
func (f *FieldValue) HasFlag(flag string) bool {
	for _, fl := range f.Flags {
		if fl == flag {
			return true
		}
	}
	return false
}

// CrossFieldValidation is the outcome of one cross-field check. Ephemeral,
// recomputed on every resolution run.
type CrossFieldValidation struct {
	ValidationType ValidationType `json:"validation_type"`
	Passed         bool           `json:"passed"`
	Message        string         `json:"message"`
	Penalty        int            `json:"penalty"`
}

// Contradiction flags conflicting or implausible resolved values for a
// downstream reviewer. Contradictions are data-quality signals, not errors.
type Contradiction struct {
	Fields      []string              `json:"fields"`
	Description string                `json:"description"`
	Severity    ContradictionSeverity `json:"severity"`
}

// ResolutionResult is the terminal artifact of field resolution for a document.
type ResolutionResult struct {
	Fields                map[string]*FieldValue `json:"fields"`
	CrossFieldValidations []CrossFieldValidation `json:"cross_field_validations"`
	Contradictions        []Contradiction        `json:"contradictions"`
	OverallConfidence     int                    `json:"overall_confidence"`
	ProcessingTimeMS      int64                  `json:"processing_time_ms"`
}

// DocumentResult bundles everything the pipeline produced for one document.
type DocumentResult struct {
	DocumentID   uuid.UUID           `json:"document_id"`
	Pages        []PageArtifact      `json:"pages"`
	Orientations []OrientationResult `json:"orientations"`
	Strips       *MultiPageStripResult `json:"strips,omitempty"`
	Resolution   *ResolutionResult     `json:"resolution,omitempty"`
}

// SaturatingSub subtracts penalty from a 0-100 confidence without going below zero.
func SaturatingSub(confidence, penalty int) int {
	if penalty >= confidence {
		return 0
	}
	return confidence - penalty
}

// ClampScore clamps a 0-100 score into range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// String renders a shield for logs.
func (s CleanupShield) String() string {
	return fmt.Sprintf("%s conf=%.2f bbox=(%.2f,%.2f %.2fx%.2f)",
		s.ShieldType, s.Confidence, s.BBox.X, s.BBox.Y, s.BBox.Width, s.BBox.Height)
}
