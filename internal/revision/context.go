package revision

import (
	"context"

	"github.com/damoang/angple-cms/internal/domain"
)

// RequestContextProvider exposes the ambient request values stored with a
// revision. Every value is optional.
type RequestContextProvider interface {
	UserAgent(ctx context.Context) *string
	SourceAddress(ctx context.Context) *string
	SessionID(ctx context.Context) *string
	ActorID(ctx context.Context) *uint64
}

type suppressKey struct{}

// WithoutAutoRevision marks ctx so mutation paths that normally record a
// revision after persisting skip it. Used while a revision is being applied.
func WithoutAutoRevision(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey{}, true)
}

// AutoRevisionSuppressed reports whether ctx came from WithoutAutoRevision
func AutoRevisionSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressKey{}).(bool)
	return v
}

type pendingKey struct{}

// pending collects revisions created inside a transaction so sinks only see
// committed rows.
type pending struct {
	revisions []*domain.Revision
}

func withPending(ctx context.Context, p *pending) context.Context {
	return context.WithValue(ctx, pendingKey{}, p)
}

func pendingFrom(ctx context.Context) (*pending, bool) {
	p, ok := ctx.Value(pendingKey{}).(*pending)
	return p, ok
}
