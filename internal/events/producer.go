package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Topics published by the transaction engine.
const (
	TopicOrderCompleted   = "order.completed"
	TopicOrderVoided      = "order.voided"
	TopicPaymentProcessed = "payment.processed"
	TopicPaymentRefunded  = "payment.refunded"
)

// Producer publishes engine events to Kafka. A nil *Producer is valid and
// drops every event, so deployments without a broker (and tests) skip
// publishing entirely.
type Producer struct {
	producer sarama.AsyncProducer
}

// NewProducer connects an async producer to the given brokers.
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range producer.Errors() {
			log.Printf("events: failed to publish: %v", err)
		}
	}()

	return &Producer{producer: producer}, nil
}

// Publish encodes the payload as JSON and hands it to the async producer.
// Publishing never blocks request handling and failures are only logged.
func (p *Producer) Publish(topic string, key string, payload interface{}) {
	if p == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: failed to encode %s event: %v", topic, err)
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
}

// Close flushes and shuts down the producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
