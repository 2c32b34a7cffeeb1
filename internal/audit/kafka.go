package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Kafka publishes one "query completed" event per Record to a topic. Like
// Postgres, it is write-only: the orchestrator never consumes this topic.
type Kafka struct {
	writer *kafka.Writer
	topic  string
}

// NewKafka builds a producer from a comma-separated broker list.
func NewKafka(brokers, topic string) (*Kafka, error) {
	if brokers = strings.TrimSpace(brokers); brokers == "" {
		return nil, fmt.Errorf("kafka audit: brokers cannot be empty")
	}
	list := strings.Split(brokers, ",")
	for i, b := range list {
		list[i] = strings.TrimSpace(b)
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(list...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Kafka{writer: w, topic: topic}, nil
}

func (k *Kafka) Record(ctx context.Context, rec Record) {
	if k == nil || k.writer == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		log.Debug().Err(err).Msg("audit_kafka_marshal_error")
		return
	}
	msg := kafka.Message{Key: []byte(rec.RequestID), Value: payload}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		log.Debug().Err(err).Str("request_id", rec.RequestID).Msg("audit_kafka_write_error")
	}
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
