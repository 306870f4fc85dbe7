// Package kafka batches and publishes finalized EventGroups to Kafka
// (SPEC_FULL §6.6), grounded on the teacher's plugins/reporter/kafka
// KafkaReporter: a segmentio/kafka-go writer with a hash balancer so all
// events for one stream land on one partition.
package kafka

import (
	"context"
	"fmt"
	"sync/atomic"

	segmentio "github.com/segmentio/kafka-go"

	"firestige.xyz/drift/internal/core"
	"firestige.xyz/drift/internal/sink"
)

const Name = "kafka"

const eventType = "changepoint"

// Config configures the Kafka sink.
type Config struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Sink publishes one Kafka message per event, keyed by stream_id so
// per-stream ordering is preserved within a partition.
type Sink struct {
	writer *segmentio.Writer

	sentCount  atomic.Uint64
	errorCount atomic.Uint64
}

func init() {
	sink.Register(Name, func(cfg any) (sink.Sink, error) {
		c, ok := cfg.(Config)
		if !ok {
			return nil, fmt.Errorf("kafka sink: unexpected config type %T", cfg)
		}
		return New(c)
	})
}

// New builds a Kafka-backed Sink.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: topic is required")
	}
	return &Sink{
		writer: &segmentio.Writer{
			Addr:         segmentio.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &segmentio.Hash{},
			BatchTimeout: 0,
			Async:        false,
		},
	}, nil
}

func (s *Sink) Write(ctx context.Context, group core.EventGroup) error {
	msgs := make([]segmentio.Message, 0, len(group.Events))
	for _, e := range group.Events {
		line := core.ChangepointEvent{
			StreamID:         e.StreamID,
			Severity:         e.Severity,
			Start:            e.Time,
			DetectionLatency: e.Latency,
			Description:      e.Desc,
			Tags:             e.Tags,
		}.LineProtocol(eventType)
		msgs = append(msgs, segmentio.Message{
			Key:   []byte(e.StreamID),
			Value: []byte(line),
			Time:  e.Time,
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		s.errorCount.Add(1)
		return fmt.Errorf("kafka sink: write: %w", err)
	}
	s.sentCount.Add(uint64(len(msgs)))
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}
