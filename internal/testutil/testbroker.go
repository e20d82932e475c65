package testutil

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// TestBroker holds test RabbitMQ resources
type TestBroker struct {
	URL       string
	container *rabbitmq.RabbitMQContainer
}

// SetupTestBroker creates a new test RabbitMQ container
func SetupTestBroker(ctx context.Context) (*TestBroker, error) {
	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	if err != nil {
		return nil, err
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		return nil, abandon(ctx, container, err)
	}

	return &TestBroker{URL: url, container: container}, nil
}

// Dial opens a fresh connection to the test broker.
func (t *TestBroker) Dial() (*amqp.Connection, error) {
	return amqp.Dial(t.URL)
}

// Teardown terminates the container
func (t *TestBroker) Teardown(ctx context.Context) {
	if t.container != nil {
		terminate(ctx, t.container)
	}
}
