package resolver

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"billnorm/internal/domain"
)

const (
	// consensusBoostPerPeer is the score boost per additional agreeing
	// candidate; consensusBoostCap bounds the total boost.
	consensusBoostPerPeer = 10
	consensusBoostCap     = 20

	maxAlternatives = 3

	largeAmountThreshold = 1_000_000
)

// Resolver turns per-field candidate lists into resolved field values with
// confidence scores, cross-field validation and contradiction detection.
// Resolution is deterministic: candidate ties keep their input order.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// ResolveFields resolves every field in candidatesByField and computes
// cross-field validations over the resolved values. Fields with empty
// candidate lists are skipped, not errored. Re-running on unchanged input
// yields an identical result apart from the declared processing time.
func (r *Resolver) ResolveFields(candidatesByField map[string][]domain.FieldCandidate) *domain.ResolutionResult {
	start := time.Now()

	result := &domain.ResolutionResult{
		Fields: make(map[string]*domain.FieldValue),
	}

	names := make([]string, 0, len(candidatesByField))
	for name := range candidatesByField {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		candidates := candidatesByField[name]
		if len(candidates) == 0 {
			continue
		}
		fv, err := r.ResolveField(name, candidates)
		if err != nil {
			log.Printf("resolver.Resolver: skipping field %s: %v", name, err)
			continue
		}
		result.Fields[name] = fv
	}

	r.applyCrossFieldChecks(result)
	r.detectFieldContradictions(result)
	result.OverallConfidence = overallConfidence(result.Fields)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()

	log.Printf("resolver.Resolver: resolved %d fields — overall=%d, validations=%d, contradictions=%d (%dms)",
		len(result.Fields), result.OverallConfidence, len(result.CrossFieldValidations),
		len(result.Contradictions), result.ProcessingTimeMS)
	return result
}

// ResolveField resolves a single field from its candidates. An empty
// candidate list returns *NoCandidatesError.
//
// Tie-break: sorting is stable on descending score, so among equal scores the
// earlier-positioned candidate wins. Consensus boosting re-sorts under the
// same rule.
func (r *Resolver) ResolveField(name string, candidates []domain.FieldCandidate) (*domain.FieldValue, error) {
	if len(candidates) == 0 {
		return nil, &NoCandidatesError{Field: name}
	}

	// Work on a copy; boosting must not mutate caller-owned candidates.
	cands := make([]domain.FieldCandidate, len(candidates))
	copy(cands, candidates)

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })

	counts := make(map[string]int)
	for i := range cands {
		counts[cands[i].Key()]++
	}
	for i := range cands {
		count := counts[cands[i].Key()]
		if count <= 1 {
			continue
		}
		boost := (count - 1) * consensusBoostPerPeer
		if boost > consensusBoostCap {
			boost = consensusBoostCap
		}
		cands[i].Score = domain.ClampScore(cands[i].Score + boost)
		cands[i].Evidence = append(cands[i].Evidence, domain.Evidence{
			Type:   domain.EvidenceConsensus,
			Weight: 0.2 * float64(count),
			Detail: fmt.Sprintf("%d candidates agree on this value", count),
		})
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })

	winner := cands[0]
	alternatives := cands[1:]
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}

	fv := &domain.FieldValue{
		FieldName:     name,
		Value:         winner.ValueRaw,
		Normalized:    winner.ValueNormalized,
		Confidence:    winner.Score,
		ChosenSources: winner.Sources,
		Alternatives:  append([]domain.FieldCandidate(nil), alternatives...),
		Explanation:   buildExplanation(winner, counts[winner.Key()]),
	}
	fv.Flags = detectFlags(fv)
	return fv, nil
}

// buildExplanation combines the confidence band, the distinct evidence types
// behind the winner and the consensus count into a reviewer-readable line.
func buildExplanation(winner domain.FieldCandidate, agreeCount int) string {
	var band string
	switch {
	case winner.Score >= 95:
		band = "very confident"
	case winner.Score >= 85:
		band = "confident"
	case winner.Score >= 70:
		band = "moderately confident"
	default:
		band = "low confidence"
	}

	var types []string
	seen := make(map[domain.EvidenceType]bool)
	for _, ev := range winner.Evidence {
		if !seen[ev.Type] {
			seen[ev.Type] = true
			types = append(types, string(ev.Type))
		}
	}

	explanation := band
	if len(types) > 0 {
		explanation += " based on " + strings.Join(types, ", ")
	}
	if agreeCount > 1 {
		explanation += fmt.Sprintf(" (seen %d times)", agreeCount)
	}
	return explanation
}

// detectFlags attaches per-field plausibility flags to a resolved value.
func detectFlags(fv *domain.FieldValue) []string {
	var flags []string
	if fv.Confidence < 70 {
		flags = append(flags, domain.FlagLowConfidence)
	}
	if isDateField(fv.FieldName) && isFutureDate(fv.Normalized) {
		flags = append(flags, domain.FlagFutureDate)
	}
	if isAmountField(fv.FieldName) {
		if v, ok := numericValue(fv.Normalized, fv.Value); ok {
			if v <= 0 {
				flags = append(flags, domain.FlagInvalidAmount)
			} else if v > largeAmountThreshold {
				flags = append(flags, domain.FlagUnusuallyLargeAmount)
			}
		}
	}
	return flags
}

// applyCrossFieldChecks evaluates every cross-field check, records the
// outcomes, penalizes implicated fields on failure and derives contradictions
// from heavily-penalized failures.
func (r *Resolver) applyCrossFieldChecks(result *domain.ResolutionResult) {
	for _, check := range crossFieldChecks() {
		outcome := check.evaluate(result.Fields)

		result.CrossFieldValidations = append(result.CrossFieldValidations, domain.CrossFieldValidation{
			ValidationType: check.validationType,
			Passed:         outcome.passed,
			Message:        outcome.message,
			Penalty:        outcome.penalty,
		})
		if outcome.passed {
			continue
		}

		perField := outcome.penalty
		if outcome.splitPenalty && len(outcome.fields) > 0 {
			perField = outcome.penalty / len(outcome.fields)
		}
		for _, name := range outcome.fields {
			fv, ok := result.Fields[name]
			if !ok {
				continue
			}
			fv.Confidence = domain.SaturatingSub(fv.Confidence, perField)
			if !fv.HasFlag(domain.FlagCrossValidationFailed) {
				fv.Flags = append(fv.Flags, domain.FlagCrossValidationFailed)
			}
		}

		if outcome.penalty >= 20 {
			severity := domain.SeverityWarning
			if outcome.penalty >= 25 {
				severity = domain.SeverityCritical
			}
			result.Contradictions = append(result.Contradictions, domain.Contradiction{
				Fields:      outcome.fields,
				Description: outcome.message,
				Severity:    severity,
			})
		}
	}
}

// detectFieldContradictions promotes future-date and invalid-amount flags to
// their own critical contradictions.
func (r *Resolver) detectFieldContradictions(result *domain.ResolutionResult) {
	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fv := result.Fields[name]
		if fv.HasFlag(domain.FlagFutureDate) {
			result.Contradictions = append(result.Contradictions, domain.Contradiction{
				Fields:      []string{name},
				Description: fmt.Sprintf("%s %q is a future date", name, fv.Value),
				Severity:    domain.SeverityCritical,
			})
		}
		if fv.HasFlag(domain.FlagInvalidAmount) {
			result.Contradictions = append(result.Contradictions, domain.Contradiction{
				Fields:      []string{name},
				Description: fmt.Sprintf("%s %q is not a positive amount", name, fv.Value),
				Severity:    domain.SeverityCritical,
			})
		}
	}
}

// overallConfidence is the unweighted integer mean of the post-penalty field
// confidences, 0 when nothing resolved.
func overallConfidence(fields map[string]*domain.FieldValue) int {
	if len(fields) == 0 {
		return 0
	}
	sum := 0
	for _, fv := range fields {
		sum += fv.Confidence
	}
	return sum / len(fields)
}
