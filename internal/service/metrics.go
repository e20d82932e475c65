package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/zhejian/shortcodes/internal/service"

type serviceMetrics struct {
	operations         metric.Int64Counter
	credentialDuration metric.Float64Histogram
}

func newServiceMetrics(provider metric.MeterProvider) (*serviceMetrics, error) {
	meter := provider.Meter(meterName)

	operations, err := meter.Int64Counter("shortcode.operations",
		metric.WithDescription("Shorten and resolve operations by outcome."),
	)
	if err != nil {
		return nil, err
	}

	credentialDuration, err := meter.Float64Histogram("shortcode.credential.duration",
		metric.WithDescription("Time spent hashing or verifying link passwords."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &serviceMetrics{
		operations:         operations,
		credentialDuration: credentialDuration,
	}, nil
}

func (m *serviceMetrics) recordOperation(ctx context.Context, operation string, err error) {
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcomeOf(err)),
	))
}

func (m *serviceMetrics) recordCredential(ctx context.Context, action string, elapsed time.Duration) {
	m.credentialDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("action", action),
	))
}

func outcomeOf(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrExhaustedKeyspace):
		return "exhausted"
	default:
		return "error"
	}
}
