package domain

// Rotation is a right-angle page rotation in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Rotations lists the four legal rotations in evaluation order.
var Rotations = []Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

// Valid reports whether r is one of the four right-angle rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// ShieldType identifies the kind of region a CleanupShield excludes.
type ShieldType string

const (
	ShieldRepetitiveHeader ShieldType = "repetitive_header"
	ShieldRepetitiveFooter ShieldType = "repetitive_footer"
)

// ValidationType identifies a cross-field validation rule.
type ValidationType string

const (
	ValidationTotalEqualsSubtotalPlusTax ValidationType = "total_equals_subtotal_plus_tax"
	ValidationDateNotInFuture            ValidationType = "date_not_in_future"
	ValidationInvoiceNumberFormat        ValidationType = "invoice_number_format"
	ValidationVendorNamePresent          ValidationType = "vendor_name_present"
)

// ContradictionSeverity ranks how badly a contradiction undermines a result.
type ContradictionSeverity string

const (
	SeverityCritical ContradictionSeverity = "critical"
	SeverityWarning  ContradictionSeverity = "warning"
)

// EvidenceType identifies where a field candidate's support came from.
type EvidenceType string

const (
	EvidenceOCR       EvidenceType = "ocr"
	EvidenceRegex     EvidenceType = "regex"
	EvidencePosition  EvidenceType = "position"
	EvidenceFormat    EvidenceType = "format"
	EvidenceConsensus EvidenceType = "consensus"
)

// Field flags attached during resolution.
const (
	FlagLowConfidence         = "low_confidence"
	FlagFutureDate            = "future_date"
	FlagInvalidAmount         = "invalid_amount"
	FlagUnusuallyLargeAmount  = "unusually_large_amount"
	FlagCrossValidationFailed = "cross_validation_failed"
)
