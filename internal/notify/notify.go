package notify

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"learn-market/internal/logging"
	"learn-market/internal/metrics"
)

const (
	MaxWorkers = 10
	MaxRetries = 3
	RetryDelay = 1 * time.Second
	QueueSize  = 100
)

// Message is one outbound notification. Delivery is best-effort: a
// failure is logged and counted, never surfaced to the operation that
// queued it.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message. Injected so tests and deployments
// without an email gateway can substitute their own.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the default Sender: it only logs the delivery.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logging.Logg.Info("notification sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Dispatcher drains a buffered message channel with a fixed worker pool.
type Dispatcher struct {
	tasks      chan Message
	sender     Sender
	wg         sync.WaitGroup
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
	mu         sync.Mutex
}

func NewDispatcher(ctx context.Context, sender Sender, maxWorkers int) *Dispatcher {
	ctx, cancel := context.WithCancel(ctx)
	return &Dispatcher{
		tasks:      make(chan Message, QueueSize),
		sender:     sender,
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.maxWorkers; i++ {
		go d.worker()
	}
}

// Stop drains the queue before cancelling the context so already
// accepted messages still get their delivery attempts.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Enqueue never blocks the caller: a message that finds the queue full
// or the dispatcher shut down is dropped, logged and counted. Purchases
// must not wait on the notification path.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.wg.Add(1)
	select {
	case d.tasks <- msg:
	default:
		d.wg.Done()
		metrics.NotificationFailures.Inc()
		logging.Logg.Warn("Notification queue full, message dropped", "to", msg.To)
	}
}

func (d *Dispatcher) worker() {
	for msg := range d.tasks {
		d.deliver(msg)
		d.wg.Done()
	}
}

func (d *Dispatcher) deliver(msg Message) {
	err := retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
			defer cancel()
			return d.sender.Send(ctx, msg)
		},
		retry.Attempts(MaxRetries),
		retry.Delay(RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(d.ctx),
	)
	if err != nil {
		metrics.NotificationFailures.Inc()
		logging.Logg.Warn("All delivery attempts failed", "to", msg.To, "error", err)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
