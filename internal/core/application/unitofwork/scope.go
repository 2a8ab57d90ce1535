package unitofwork

import (
	"context"

	"github.com/google/uuid"
)

// ScopeID identifies one logical task or request.
type ScopeID string

type scopeKey struct{}

// NewScope returns a child context carrying a fresh work scope.
// Any scope already present on ctx is shadowed.
func NewScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, ScopeID(uuid.NewString()))
}

// ScopeFrom returns the work scope carried by ctx.
func ScopeFrom(ctx context.Context) (ScopeID, bool) {
	id, ok := ctx.Value(scopeKey{}).(ScopeID)
	return id, ok && id != ""
}
