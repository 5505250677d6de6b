package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"staycal/internal/domain"
)

// Publisher emits booking transition events to a Kafka topic, keyed by
// aggregate id so per-booking ordering is preserved.
type Publisher struct {
	sync  sarama.SyncProducer
	topic string
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Return.Successes = true
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{sync: p, topic: topic}, nil
}

type envelope struct {
	Name        string    `json:"name"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data"`
}

func (p *Publisher) Publish(_ context.Context, ev domain.Event) error {
	payload, err := json.Marshal(envelope{
		Name:        ev.EventName(),
		AggregateID: ev.AggregateID(),
		OccurredAt:  ev.OccurredAt(),
		Data:        ev,
	})
	if err != nil {
		return err
	}
	_, _, err = p.sync.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.AggregateID()),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (p *Publisher) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// LogPublisher stands in when no brokers are configured; transitions are
// still visible in the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev domain.Event) error {
	log.Info().
		Str("event", ev.EventName()).
		Str("aggregate", ev.AggregateID()).
		Time("occurred_at", ev.OccurredAt()).
		Msg("booking event")
	return nil
}
