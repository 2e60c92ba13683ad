package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher hands audit events to a fixed set of workers. Events are sharded
// on email so one account's history is written in order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	onDrop  func(domain.AuditEvent)
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// OnDrop registers a callback invoked for each event discarded because its
// worker queue was full or the dispatcher was stopped.
func (d *Dispatcher) OnDrop(fn func(domain.AuditEvent)) {
	d.onDrop = fn
}

// Start launches the worker goroutines. Workers exit once Stop closes their
// queues and the remaining events are written.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Record queues event without blocking. Full queues drop the event.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(event, "dispatcher stopped")
		return
	}

	select {
	case d.workers[d.shardIndex(event.Email)] <- event:
	default:
		d.drop(event, "audit queue full")
	}
}

// Stop closes the queues and waits for the workers to drain them, or for ctx
// to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
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

func (d *Dispatcher) drop(event domain.AuditEvent, reason string) {
	d.log.Warn().
		Str("action", string(event.Action)).
		Str("email", event.Email).
		Msg(reason)
	if d.onDrop != nil {
		d.onDrop(event)
	}
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for event := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := d.repo.Insert(ctx, &event); err != nil {
			d.log.Error().Err(err).
				Str("action", string(event.Action)).
				Str("email", event.Email).
				Int("worker_id", id).
				Msg("audit write failed")
		}
		cancel()
	}
}

var _ ports.AuditRecorder = (*Dispatcher)(nil)
