package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
	"github.com/rl1809/petstore-orders/internal/port"
)

const defaultPublishTimeout = 5 * time.Second

// Dispatcher drains the order event queue into a publisher with a fixed pool of workers.
// Publishing is best effort: a failed event is logged and counted, never retried.
type Dispatcher struct {
	publisher port.EventPublisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(publisher port.EventPublisher, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    observability.OrDefault(logger),
		metrics:   metrics,
		timeout:   defaultPublishTimeout,
	}
}

// Start launches workers that run until queue is closed.
func (d *Dispatcher) Start(queue <-chan domain.OrderEvent, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id, queue)
		}(i)
	}
	d.logger.Info("event workers started", zap.Int("workers", workers))
}

// Wait blocks until every worker has drained the closed queue.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(id int, queue <-chan domain.OrderEvent) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.publisher.Publish(ctx, event)
		cancel()

		if err != nil {
			d.metrics.EventsPublished.WithLabelValues("error").Inc()
			d.logger.Error("failed to publish order event",
				zap.Int("worker", id),
				zap.String("type", string(event.Type)),
				zap.Int64("order_id", event.OrderID),
				zap.Error(err),
			)
			continue
		}
		d.metrics.EventsPublished.WithLabelValues("success").Inc()
	}
}
