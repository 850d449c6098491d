// Package notify contains the revision event sinks: cache invalidation,
// metrics, logging and Kafka publishing.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
)

type namedSink struct {
	name string
	sink revision.EventSink
}

// Fanout delivers each revision to every registered sink in order. One
// failing or panicking sink does not stop the others.
type Fanout struct {
	sinks []namedSink
}

// NewFanout creates an empty Fanout
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers sink under name (used in logs and metrics)
func (f *Fanout) Add(name string, sink revision.EventSink) *Fanout {
	if sink != nil {
		f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	}
	return f
}

// Len returns the number of registered sinks
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	var errs []error
	for _, s := range f.sinks {
		if err := deliver(ctx, s.sink, rev); err != nil {
			sinkFailures.WithLabelValues(s.name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, sink revision.EventSink, rev *domain.Revision) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sink.OnRevisionCreated(ctx, rev)
}
