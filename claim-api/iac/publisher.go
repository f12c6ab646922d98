package iac

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, outcome *orchestrator.Outcome) error
	Close() error
}

var _ orchestrator.Notifier = (Publisher)(nil)

type kafkaPublisher struct {
	writer messageWriter
}

// NewPublisher When automatically creating a topic is allowed, if the topic does not exist,
// the topic will be created for the first time, but the message will fail to be sent. Just try again.
func NewPublisher(brokers []string, topic string) Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           1 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: writer}
}

func (k *kafkaPublisher) Publish(ctx context.Context, outcome *orchestrator.Outcome) error {
	ev := NewOutcomeEvent(outcome)
	value, err := ev.Marshal()
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.PartitionKey()),
		Value: value,
		Time:  time.Now(),
	})
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}
