package port

import (
	"context"

	"github.com/google/uuid"

	"billnorm/internal/domain"
)

// ShieldStore persists cleanup shields for a document. The store is
// append-only with versioned supersede semantics: saving a new shield list
// supersedes the previous version, nothing is updated in place and nothing
// is deleted.
type ShieldStore interface {
	SaveShields(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) error
}
