package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cloudEventSpecVersion = "1.0"
	cloudEventContentType = "application/json"
)

// CloudEvent is the CloudEvents v1.0 envelope carried on the wire.
type CloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data,omitempty"`
}

// KafkaProducer publishes CloudEvents to a single Kafka topic using a
// synchronous, idempotent sarama producer.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	source   string
	logger   *zap.Logger
}

// NewKafkaProducer connects to the given brokers. source identifies this
// service in the CloudEvent envelope, e.g. "/courier-back".
func NewKafkaProducer(brokers []string, topic, source string, logger *zap.Logger) (*KafkaProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		source:   source,
		logger:   logger.Named("kafka_producer"),
	}, nil
}

// NewKafkaProducerWith wraps an existing sarama producer. Used by tests.
func NewKafkaProducerWith(producer sarama.SyncProducer, topic, source string, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{producer: producer, topic: topic, source: source, logger: logger.Named("kafka_producer")}
}

// Publish wraps the payload in a CloudEvent envelope and sends it, keyed by
// subject so events about one principal stay ordered within a partition.
func (p *KafkaProducer) Publish(_ context.Context, eventType EventType, subject string, payload any) error {
	event := CloudEvent{
		SpecVersion:     cloudEventSpecVersion,
		Type:            string(eventType),
		Source:          p.source,
		Subject:         subject,
		ID:              uuid.NewString(),
		Time:            time.Now().UTC(),
		DataContentType: cloudEventContentType,
		Data:            payload,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(subject),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}

	p.logger.Debug("published session event",
		zap.String("type", string(eventType)),
		zap.String("subject", subject),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying producer down.
func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

var _ Publisher = (*KafkaProducer)(nil)
