package iac

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Subscriber interface {
	// Subscribe blocks until ctx is done, handing every decodable event to callback.
	Subscribe(ctx context.Context, callback func(event OutcomeEvent))
}

type kafkaSubscriber struct {
	reader     messageReader
	retryDelay time.Duration
}

func NewSubscriber(brokers []string, topic string, groupID string) Subscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		CommitInterval: 1 * time.Second,
		GroupID:        groupID,
		StartOffset:    kafka.LastOffset,
	})
	return &kafkaSubscriber{reader: reader, retryDelay: time.Second}
}

func (k *kafkaSubscriber) Subscribe(ctx context.Context, callback func(event OutcomeEvent)) {
	defer k.reader.Close()
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			zap.L().Error("read message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(k.retryDelay):
			}
			continue
		}
		ev, err := UnmarshalOutcomeEvent(msg.Value)
		if err != nil {
			zap.L().Warn("skip undecodable outcome", zap.ByteString("key", msg.Key), zap.Error(err))
			continue
		}
		callback(ev)
	}
}

// InvalidateOnConfirmed drops cached state for every confirmed outcome, so
// other processes observe claims made elsewhere.
func InvalidateOnConfirmed(ctx context.Context, inv orchestrator.Invalidator) func(OutcomeEvent) {
	return func(ev OutcomeEvent) {
		if !ev.Confirmed() {
			return
		}
		user := ev.User
		if ev.Kind == string(orchestrator.KindCreateSchedule) {
			user = common.Address{}
		}
		if err := inv.Invalidate(ctx, user, ev.Token); err != nil {
			zap.L().Warn("invalidate failed", zap.String("user", user.Hex()), zap.String("token", ev.Token.Hex()), zap.Error(err))
		}
	}
}

func Go(f func()) {
	go func(f func()) {
		defer func() {
			if e := recover(); e != nil {
				zap.L().DPanic("panic recover", zap.Any("Panic", e))
			}
		}()
		f()
	}(f)
}
