package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

// TopicBridgeAlerts is the default alert event topic.
const TopicBridgeAlerts = "bridge-alerts"

// KafkaNotifier publishes alert events to the alert topic.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotifier creates a notifier over a synchronous producer. An
// empty topic falls back to TopicBridgeAlerts.
func NewKafkaNotifier(brokers []string, topic, clientID string) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewRoundRobinPartitioner
	if clientID != "" {
		config.ClientID = clientID
	}

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		topic = TopicBridgeAlerts
	}
	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

// newKafkaNotifierWithProducer is the test seam.
func newKafkaNotifierWithProducer(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (k *KafkaNotifier) Name() string {
	return "kafka"
}

func (k *KafkaNotifier) Notify(_ context.Context, event *AlertEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(event.TxHash),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("alert_type"), Value: []byte(event.AlertType)},
			{Key: []byte("severity"), Value: []byte(event.Severity)},
		},
	}
	_, _, err = k.producer.SendMessage(msg)
	return err
}

// Close closes the underlying producer.
func (k *KafkaNotifier) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
