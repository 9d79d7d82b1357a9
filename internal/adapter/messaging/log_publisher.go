package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
)

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: observability.OrDefault(logger)}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	p.logger.Info("order event",
		zap.String("type", string(event.Type)),
		zap.Int64("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber),
		zap.Int64("member_id", event.MemberID),
		zap.String("from_status", event.FromStatus),
		zap.String("status", event.Status),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
