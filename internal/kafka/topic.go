package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	kafkaGo "github.com/segmentio/kafka-go"

	"ndx-snapshot-backend/internal/config"
)

// EnsureTopic creates the run-event topic through the controller broker.
// An already existing topic is not an error.
func EnsureTopic(ctx context.Context, cfg config.KafkaConfig) error {
	var dialer kafkaGo.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", cfg.BrokerURL)
	if err != nil {
		return fmt.Errorf("dial kafka for topic creation: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get kafka controller: %w", err)
	}

	controllerConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("connect to kafka controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafkaGo.TopicAlreadyExists) {
		return fmt.Errorf("create kafka topic %q: %w", cfg.Topic, err)
	}
	return nil
}
