package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onboarding-portal/config"
	"onboarding-portal/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSchedulePublisher emits committed schedule changes for downstream consumers
// (reminders, CRM sync). Messages are keyed by user so a client's events stay ordered.
type KafkaSchedulePublisher struct {
	writer MessageWriter
	topic  string
	log    *logrus.Logger
}

// NewKafkaSchedulePublisher returns nil when no brokers are configured.
func NewKafkaSchedulePublisher(cfg config.KafkaConfig, log *logrus.Logger) *KafkaSchedulePublisher {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka schedule publisher disabled (no brokers configured)")
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.ScheduleTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaSchedulePublisherWithWriter(writer, cfg.ScheduleTopic, log)
}

func NewKafkaSchedulePublisherWithWriter(writer MessageWriter, topic string, log *logrus.Logger) *KafkaSchedulePublisher {
	return &KafkaSchedulePublisher{writer: writer, topic: topic, log: log}
}

func (p *KafkaSchedulePublisher) PublishScheduleEvent(ctx context.Context, event entity.ScheduleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode schedule event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write schedule event to %s: %w", p.topic, err)
	}

	p.log.Debugf("Published %s for user %s to %s", event.Type, event.UserID, p.topic)
	return nil
}

func (p *KafkaSchedulePublisher) Close() error {
	return p.writer.Close()
}
