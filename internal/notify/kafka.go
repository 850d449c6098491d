package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventRevisionCreated is the event type header value
const EventRevisionCreated = "revision.created"

// RevisionEvent is the Kafka message body
type RevisionEvent struct {
	EventID    string           `json:"event_id"`
	Type       string           `json:"type"`
	RequestID  string           `json:"request_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
	Revision   *domain.Revision `json:"revision"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes committed revisions keyed by subject so one subject's
// events stay in order on one partition.
type KafkaSink struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaSink creates a synchronous producer for topic
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			Async:                  false,
			WriteTimeout:           10 * time.Second,
		},
		timeout: 5 * time.Second,
	}
}

func (k *KafkaSink) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	body, err := json.Marshal(RevisionEvent{
		EventID:    uuid.NewString(),
		Type:       EventRevisionCreated,
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: rev.CreatedAt,
		Revision:   rev,
	})
	if err != nil {
		return err
	}

	// the request may already be finishing; publish on a detached deadline
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()

	return k.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(rev.Subject().String()),
		Value: body,
		Time:  rev.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventRevisionCreated)},
		},
	})
}

// Close flushes and closes the producer
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
