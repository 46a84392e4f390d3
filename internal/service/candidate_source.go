package service

import (
	"context"

	"github.com/google/uuid"

	"billnorm/internal/domain"
)

// CandidateSourceFunc adapts a function to port.CandidateSource.
type CandidateSourceFunc func(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error)

// Candidates implements port.CandidateSource.
func (f CandidateSourceFunc) Candidates(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error) {
	return f(ctx, documentID, shields)
}
