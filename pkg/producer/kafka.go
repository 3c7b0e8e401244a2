package producer

import (
	"context"
	"fmt"
	"time"

	"decksync/pkg/deck"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// DeckAppended is published once for every row written to a table.
type DeckAppended struct {
	Job        string    `json:"job"`
	Tab        string    `json:"tab"`
	DeckName   string    `json:"deck_name"`
	Date       string    `json:"date"`
	Author     string    `json:"author"`
	Tournament string    `json:"tournament"`
	Decklist   string    `json:"decklist,omitempty"`
	SourceLink string    `json:"source_link,omitempty"`
	AppendedAt time.Time `json:"appended_at"`
}

// NewDeckAppended builds the event for r.
func NewDeckAppended(job, tab string, r deck.Record, at time.Time) DeckAppended {
	return DeckAppended{
		Job:        job,
		Tab:        tab,
		DeckName:   r.DeckName,
		Date:       r.Date,
		Author:     r.Author,
		Tournament: r.Tournament,
		Decklist:   r.Decklist,
		SourceLink: r.SourceLink,
		AppendedAt: at.UTC(),
	}
}

// Producer defines the interface for announcing appended decks
type Producer interface {
	// Publish sends one event keyed by the deck's identity key and waits for
	// the broker to acknowledge it.
	Publish(ctx context.Context, key string, event DeckAppended) error

	// Close gracefully shuts down the producer
	Close() error
}

// NopProducer drops every event.
type NopProducer struct{}

func (NopProducer) Publish(ctx context.Context, key string, event DeckAppended) error { return nil }

func (NopProducer) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements the Producer interface using kafka-go
type KafkaProducer struct {
	writer messageWriter
}

// Config holds Kafka producer configuration
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// NewKafkaProducer creates a new KafkaProducer instance
func NewKafkaProducer(cfg Config) *KafkaProducer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: timeout,
		},
	}
}

// Publish serializes event and writes it synchronously
func (p *KafkaProducer) Publish(ctx context.Context, key string, event DeckAppended) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close gracefully shuts down the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
