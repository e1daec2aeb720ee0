package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/logger"

	"github.com/nats-io/nats.go"
)

// NATSEventPublisher implements the EventPublisher interface on a NATS connection
type NATSEventPublisher struct {
	conn   *nats.Conn
	logger logger.Logger
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(conn *nats.Conn, logger logger.Logger) repository.EventPublisher {
	return &NATSEventPublisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish marshals data as JSON and publishes it on subject
func (p *NATSEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.logger.Debug("Publishing event", "subject", subject, "bytes", len(payload))

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// LogEventPublisher is used when NATS_URL is unset; events are only logged
type LogEventPublisher struct {
	logger logger.Logger
}

// NewLogEventPublisher creates a publisher that logs instead of publishing
func NewLogEventPublisher(logger logger.Logger) repository.EventPublisher {
	return &LogEventPublisher{logger: logger}
}

// Publish logs the event
func (p *LogEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	p.logger.Info("Event (not published, no NATS configured)", "subject", subject, "data", data)
	return nil
}
