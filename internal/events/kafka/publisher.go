package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"ibimina-reconciliation-backend/internal/events"

	kafkago "github.com/segmentio/kafka-go"
)

// Publisher writes posted-payment events to a Kafka topic, keyed by tenant
// so one SACCO's events stay ordered within a partition.
type Publisher struct {
	writer *kafkago.Writer
}

func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(strings.Split(brokers, ",")...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishPosted(ctx context.Context, event events.PostedPayment) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.SaccoID.String()),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
