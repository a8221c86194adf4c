package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error
	Close()
}

type confluentKafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

// PublisherFromConfluentKafkaProducer wraps a confluent producer and drains
// its delivery reports in the background.
func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *kafka.Producer) Publisher {
	p := &confluentKafkaPublisher{
		logger:   logger,
		producer: producer,
	}

	go p.watchDeliveryReports()

	return p
}

func (p *confluentKafkaPublisher) watchDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.WithError(ev.TopicPartition.Error).WithField("topic", *ev.TopicPartition.Topic).Error("message delivery failed")
			}
		case kafka.Error:
			p.logger.WithError(ev).Error("kafka producer error")
		}
	}
}

func (p *confluentKafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   message,
		Headers: kafkaHeaders,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("topic", topic).Error("unable to produce message")
		return err
	}

	return nil
}

func (p *confluentKafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
