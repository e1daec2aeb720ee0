package repository

import (
	"context"

	"villa-portal-service/internal/domain/entity"
)

// MailRepository defines the interface for outbound email transports
type MailRepository interface {
	Send(ctx context.Context, email *entity.OutboundEmail) (string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
