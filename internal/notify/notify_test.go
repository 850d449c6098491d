package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/pkg/cache"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleRevision() *domain.Revision {
	actor := uint64(4)
	return &domain.Revision{
		ID:          12,
		SubjectType: domain.SubjectPage,
		SubjectID:   3,
		ActorID:     &actor,
		Action:      domain.ActionUpdate,
		Version:     "1.0.4",
		Data:        domain.Snapshot{"slug": "about"},
		Changes:     domain.Snapshot{"slug": "about"},
		CreatedAt:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	var delivered []string
	ok := func(name string) revision.EventSink {
		return revision.SinkFunc(func(context.Context, *domain.Revision) error {
			delivered = append(delivered, name)
			return nil
		})
	}

	before := testutil.ToFloat64(sinkFailures.WithLabelValues("broken"))

	f := NewFanout().
		Add("first", ok("first")).
		Add("broken", revision.SinkFunc(func(context.Context, *domain.Revision) error { return errors.New("down") })).
		Add("panicky", revision.SinkFunc(func(context.Context, *domain.Revision) error { panic("boom") })).
		Add("last", ok("last")).
		Add("nil", nil)

	err := f.OnRevisionCreated(context.Background(), sampleRevision())

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"first", "last"}, delivered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: down")
	assert.Contains(t, err.Error(), "panicky: panic: boom")
	assert.Equal(t, before+1, testutil.ToFloat64(sinkFailures.WithLabelValues("broken")))
}

func TestMetricsSink(t *testing.T) {
	counter := revisionsCreated.WithLabelValues("page", "update")
	before := testutil.ToFloat64(counter)

	require.NoError(t, MetricsSink{}.OnRevisionCreated(context.Background(), sampleRevision()))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestLogSink(t *testing.T) {
	assert.NoError(t, LogSink{}.OnRevisionCreated(context.Background(), sampleRevision()))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("write without deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, timeout: time.Second}
	ctx := requestcontext.WithRequestID(context.Background(), "req-9")

	require.NoError(t, sink.OnRevisionCreated(ctx, sampleRevision()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "page:3", string(msg.Key))
	assert.Equal(t, EventRevisionCreated, string(msg.Headers[0].Value))

	var ev RevisionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "req-9", ev.RequestID)
	assert.Equal(t, "1.0.4", ev.Revision.Version)
	assert.Equal(t, domain.ActionUpdate, ev.Revision.Action)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkReturnsWriteError(t *testing.T) {
	sink := &KafkaSink{writer: &fakeWriter{err: errors.New("leader not available")}, timeout: time.Second}
	assert.Error(t, sink.OnRevisionCreated(context.Background(), sampleRevision()))
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}
func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}
func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
func (m *mockCache) GetHistory(ctx context.Context, subject string, limit int, dest interface{}) error {
	return m.Called(ctx, subject, limit, dest).Error(0)
}
func (m *mockCache) SetHistory(ctx context.Context, subject string, limit int, data interface{}, ttl time.Duration) error {
	return m.Called(ctx, subject, limit, data, ttl).Error(0)
}
func (m *mockCache) InvalidateHistory(ctx context.Context, subject string) error {
	return m.Called(ctx, subject).Error(0)
}
func (m *mockCache) IsAvailable() bool { return m.Called().Bool(0) }
func (m *mockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ cache.Service = (*mockCache)(nil)

func TestCacheInvalidator(t *testing.T) {
	c := new(mockCache)
	c.On("InvalidateHistory", mock.Anything, "page:3").Return(nil).Once()

	require.NoError(t, NewCacheInvalidator(c).OnRevisionCreated(context.Background(), sampleRevision()))
	c.AssertExpectations(t)
}

func TestHistoryCache(t *testing.T) {
	subject := domain.Subject{Type: domain.SubjectPage, ID: 3}

	t.Run("unavailable cache always misses", func(t *testing.T) {
		c := new(mockCache)
		c.On("IsAvailable").Return(false)
		h := NewHistoryCache(c, time.Minute)

		_, ok := h.GetHistory(context.Background(), subject, 10)
		assert.False(t, ok)
		h.SetHistory(context.Background(), subject, 10, nil)
		c.AssertNotCalled(t, "SetHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hit and miss", func(t *testing.T) {
		c := new(mockCache)
		c.On("IsAvailable").Return(true)
		c.On("GetHistory", mock.Anything, "page:3", 10, mock.Anything).Return(cache.ErrMiss).Once()
		c.On("GetHistory", mock.Anything, "page:3", 20, mock.Anything).Return(nil).Once()
		c.On("SetHistory", mock.Anything, "page:3", 10, mock.Anything, time.Minute).Return(nil).Once()
		h := NewHistoryCache(c, time.Minute)

		_, ok := h.GetHistory(context.Background(), subject, 10)
		assert.False(t, ok)
		h.SetHistory(context.Background(), subject, 10, []*domain.Revision{sampleRevision()})
		_, ok = h.GetHistory(context.Background(), subject, 20)
		assert.True(t, ok)
		c.AssertExpectations(t)
	})
	t.Run("invalidate drops every page", func(t *testing.T) {
		c := new(mockCache)
		c.On("IsAvailable").Return(true)
		c.On("InvalidateHistory", mock.Anything, "page:3").Return(errors.New("redis down")).Once()
		h := NewHistoryCache(c, time.Minute)

		h.InvalidateHistory(context.Background(), subject)
		c.AssertExpectations(t)
	})
}
