package notify

import (
	"context"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	revisionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_revisions_created_total",
			Help: "Total number of committed revisions",
		},
		[]string{"subject_type", "action"},
	)

	sinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_revision_sink_failures_total",
			Help: "Total number of failed revision sink deliveries",
		},
		[]string{"sink"},
	)
)

// MetricsSink counts committed revisions
type MetricsSink struct{}

func (MetricsSink) OnRevisionCreated(_ context.Context, rev *domain.Revision) error {
	revisionsCreated.WithLabelValues(string(rev.SubjectType), string(rev.Action)).Inc()
	return nil
}
