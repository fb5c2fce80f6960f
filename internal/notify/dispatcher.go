package notify

/*
Dispatcher доставляет события смены состояния агентов (state_change) подписчикам.

- Non-blocking: Publish никогда не блокирует построение снапшота метрик.
  При переполнении буфера событие сбрасывается (Load Shedding) и учитывается в метриках.
- Batching: воркер копит события и отдает их Sink пачкой по таймеру или по лимиту.
- Drain Pattern: Stop закрывает вход, воркер вычитывает остаток и делает финальный flush.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
)

const (
	defaultBufferSize    = 1024
	defaultBatchSize     = 64
	defaultFlushInterval = 250 * time.Millisecond
)

// Sink определяет, куда физически уходят события
type Sink interface {
	// WriteBatch доставляет пачку событий за один раз
	WriteBatch(ctx context.Context, events []domain.StateChangeEvent) error
}

type Dispatcher struct {
	ch      chan domain.StateChangeEvent
	sink    Sink
	logger  *zap.Logger
	metrics *telemetry.Metrics

	batchSize     int
	flushInterval time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex // защищает closed и отправку в ch
	closed bool
}

func NewDispatcher(sink Sink, bufferSize int, metrics *telemetry.Metrics, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		ch:            make(chan domain.StateChangeEvent, bufferSize),
		sink:          sink,
		logger:        logger.Named("notify"),
		metrics:       metrics,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё доставит.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher: flushing buffered events...")
	d.wg.Wait()
	d.logger.Info("dispatcher stopped gracefully")
}

// Publish ставит события в очередь. Не блокирует.
func (d *Dispatcher) Publish(events ...domain.StateChangeEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("state events dropped: dispatcher is stopping", zap.Int("count", len(events)))
		return
	}

	for _, ev := range events {
		select {
		case d.ch <- ev:
			d.metrics.EventBufferFill.Inc()
		default:
			// Backpressure: подписчики не успевают, теряем событие, а не latency API
			d.metrics.EventsDropped.Inc()
			d.logger.Error("event_buffer_overflow",
				zap.String("agent_id", ev.AgentID),
				zap.String("state", string(ev.State)),
			)
		}
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	batch := make([]domain.StateChangeEvent, 0, d.batchSize)
	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: к моменту финального flush контекст приложения уже отменен
		if err := d.sink.WriteBatch(context.Background(), batch); err != nil {
			d.logger.Error("event flush failed", zap.Int("count", len(batch)), zap.Error(err))
		}
		d.metrics.EventBufferFill.Sub(float64(len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush() // Финальный сброс
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
