package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/eventhive/eh-registration/config"
	"github.com/eventhive/eh-registration/pkg/applogger"
)

func NewProducer() *kafka.Producer {
	c := config.Get()
	logger := applogger.GetLogrus()

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
		"client.id":         c.Application.Name,
		"acks":              "all",
	})
	if err != nil {
		logger.WithError(err).Fatal("unable to create kafka producer")
	}

	return producer
}
