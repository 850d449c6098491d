package revision

import (
	"context"

	"github.com/damoang/angple-cms/internal/domain"
)

// EventSink is notified after a revision has been committed. Errors are
// logged by the service and never returned to the caller.
type EventSink interface {
	OnRevisionCreated(ctx context.Context, rev *domain.Revision) error
}

// SinkFunc adapts a function to EventSink
type SinkFunc func(ctx context.Context, rev *domain.Revision) error

func (f SinkFunc) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	return f(ctx, rev)
}

type nopSink struct{}

func (nopSink) OnRevisionCreated(context.Context, *domain.Revision) error { return nil }
