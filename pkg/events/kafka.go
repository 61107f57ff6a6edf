package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig is decoded from events.settings when events.provider is kafka.
type KafkaConfig struct {
	Brokers        string `mapstructure:"brokers"`
	Topic          string `mapstructure:"topic"`
	Retries        int    `mapstructure:"retries"`
	RetryBackoffMS int    `mapstructure:"retry_backoff_ms"`
}

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id so one order's history stays
// on one partition.
type KafkaPublisher struct {
	writer messageWriter
	retry  resilience.RetryPolicy
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	var brokers []string
	for _, a := range strings.Split(cfg.Brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			brokers = append(brokers, a)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: no brokers configured")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka publisher: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return NewKafkaPublisherWith(w, resilience.NewRetryPolicy(cfg.Retries, time.Duration(cfg.RetryBackoffMS)*time.Millisecond)), nil
}

// NewKafkaPublisherWith is used by tests to inject a fake writer.
func NewKafkaPublisherWith(w messageWriter, retry resilience.RetryPolicy) *KafkaPublisher {
	return &KafkaPublisher{writer: w, retry: retry}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errorsx.Wrapf(err, errorsx.ReasonEventPublish, "marshal event")
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: b,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	err = k.retry.Do(ctx, func(ctx context.Context) error {
		return k.writer.WriteMessages(ctx, msg)
	})
	return errorsx.Wrap(err, errorsx.ReasonEventPublish)
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }
