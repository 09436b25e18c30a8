package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/api/metrics"
	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the email, so the events of one identity are stored in order.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Writes keep the values of ctx but not
// its cancellation, so Shutdown can drain what is already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(base, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its email. It never
// blocks: when the worker is saturated or the dispatcher is shut down the
// event is dropped and false is returned.
func (d *Dispatcher) Enqueue(event domain.AuthEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.AuditEventsTotal.WithLabelValues(string(event.Kind), "dropped").Inc()
		return false
	}

	idx := d.shardIndex(event.Email)
	ch := d.workers[idx]
	select {
	case ch <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(ch)))
		return true
	default:
		metrics.AuditEventsTotal.WithLabelValues(string(event.Kind), "dropped").Inc()
		d.log.Warn().Str("kind", string(event.Kind)).Int("worker_id", idx).Msg("audit queue full, event dropped")
		return false
	}
}

// Shutdown stops accepting events, drains the queues and waits for the
// workers, or returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		start := time.Now()
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := d.repo.InsertAuthEvent(writeCtx, &event)
		cancel()
		metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.AuditEventsTotal.WithLabelValues(string(event.Kind), "error").Inc()
			d.log.Error().Err(err).
				Str("kind", string(event.Kind)).
				Int("worker_id", id).
				Msg("audit event persistence failed")
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues(string(event.Kind), "stored").Inc()
	}
}
