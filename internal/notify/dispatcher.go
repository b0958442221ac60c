package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apdq/deliver-backend/internal/core/events"
)

var published = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "deliver",
	Subsystem: "notify",
	Name:      "notifications_total",
	Help:      "Notifications handed to the broker, by event type and outcome.",
}, []string{"type", "outcome"})

type Job struct {
	Notification Notification
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "type", job.Notification.Type)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	MaxWorkers     int
	JobQueueSize   int
	PublishTimeout time.Duration
}

// Dispatcher forwards bus events to a Publisher through a bounded worker
// pool. Enqueue never blocks the request path; a full queue drops the event.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	pending    atomic.Int64
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(publisher Publisher, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	d := &Dispatcher{
		publisher:  publisher,
		timeout:    timeout,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.workerPool, d.logger).Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// process outlives d.ctx so a publish in flight at shutdown completes.
func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer d.pending.Add(-1)

	n := job.Notification
	if err := d.publisher.Publish(ctx, n); err != nil {
		published.WithLabelValues(n.Type, "failed").Inc()
		d.logger.Error("failed to publish notification", "type", n.Type, "id", n.ID, "error", err)
		return
	}
	published.WithLabelValues(n.Type, "published").Inc()
}

// Enqueue reports false when the queue is full or the dispatcher stopped.
func (d *Dispatcher) Enqueue(n Notification) bool {
	if d.ctx.Err() != nil {
		return false
	}
	d.pending.Add(1)
	select {
	case d.jobQueue <- Job{Notification: n}:
		return true
	default:
		d.pending.Add(-1)
		published.WithLabelValues(n.Type, "dropped").Inc()
		d.logger.Warn("notification queue full, dropping event", "type", n.Type, "id", n.ID)
		return false
	}
}

// Attach subscribes the dispatcher to every domain event type on bus.
func (d *Dispatcher) Attach(bus *events.EventBus) {
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, d.HandleEvent)
	}
}

func (d *Dispatcher) HandleEvent(_ context.Context, e events.Event) error {
	d.Enqueue(FromEvent(e))
	return nil
}

// Shutdown gives queued notifications up to one publish timeout to drain,
// then stops the workers and closes the publisher.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher", "pending", d.pending.Load())
	deadline := time.Now().Add(d.timeout)
	for d.pending.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	d.cancel()
	d.wg.Wait()
	if err := d.publisher.Close(); err != nil {
		d.logger.Warn("closing publisher", "error", err)
	}
	d.logger.Info("notification dispatcher shutdown complete")
}
