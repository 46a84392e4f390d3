package resolver

import "fmt"

// NoCandidatesError indicates a caller asked to resolve a field with an
// empty candidate list. ResolveFields skips such fields before calling
// ResolveField, so only direct callers see it.
type NoCandidatesError struct {
	Field string
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidates for field %q", e.Field)
}
