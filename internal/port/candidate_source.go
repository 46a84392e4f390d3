package port

import (
	"context"

	"github.com/google/uuid"

	"billnorm/internal/domain"
)

// CandidateSource is the external OCR/extraction collaborator that produces
// per-field candidate lists for a document. Shields are exclusion masks: the
// source must suppress candidates originating inside a shielded region.
type CandidateSource interface {
	Candidates(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error)
}
