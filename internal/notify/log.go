package notify

import (
	"context"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/damoang/angple-cms/pkg/requestcontext"
)

// LogSink writes one structured line per committed revision
type LogSink struct{}

func (LogSink) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	ev := logger.GetLogger().Info().
		Str("request_id", requestcontext.RequestID(ctx)).
		Str("subject_type", string(rev.SubjectType)).
		Uint64("subject_id", rev.SubjectID).
		Str("action", string(rev.Action)).
		Str("version", rev.Version).
		Bool("published", rev.IsPublished)
	if rev.ActorID != nil {
		ev = ev.Uint64("actor_id", *rev.ActorID)
	}
	ev.Msg("revision created")
	return nil
}
