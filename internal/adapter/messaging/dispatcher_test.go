package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.OrderEvent
	failFor   map[int64]bool
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[event.OrderID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestDispatcher_DrainsQueue(t *testing.T) {
	publisher := &recordingPublisher{failFor: map[int64]bool{3: true}}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	core, logs := observer.New(zapcore.InfoLevel)

	d := NewDispatcher(publisher, zap.New(core), metrics)
	queue := make(chan domain.OrderEvent, 10)
	for id := int64(1); id <= 5; id++ {
		queue <- domain.OrderEvent{Type: domain.OrderEventCreated, OrderID: id}
	}
	close(queue)

	d.Start(queue, 3)
	d.Wait()

	assert.Len(t, publisher.published, 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error")))
	assert.Equal(t, 1, logs.FilterMessage("failed to publish order event").Len())
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	publisher := NewLogPublisher(zap.New(core))

	err := publisher.Publish(context.Background(), domain.OrderEvent{
		Type:       domain.OrderEventStatusChanged,
		OrderID:    9,
		FromStatus: "PENDING",
		Status:     "CONFIRMED",
	})
	assert.NoError(t, err)
	assert.NoError(t, publisher.Close())

	entries := logs.FilterMessage("order event").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "order.status_changed", fields["type"])
		assert.Equal(t, int64(9), fields["order_id"])
	}
}
