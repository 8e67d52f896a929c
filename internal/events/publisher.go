package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Envelope is the wire form of a domain event.
type Envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher writes domain events to kafka. A Publisher built without brokers
// is a safe no-op, so the service runs fine without a broker in place.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return &Publisher{}
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w}
}

func (p *Publisher) Publish(ctx context.Context, event string, payload interface{}) error {
	if p == nil || p.writer == nil {
		return nil
	}
	env := Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event, err)
	}
	msg := kafka.Message{Key: []byte(event), Value: value, Time: env.Timestamp}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
