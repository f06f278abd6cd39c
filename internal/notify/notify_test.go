package notify

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"learn-market/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Logg = logging.NewLogger("error")
	os.Exit(m.Run())
}

type recordingSender struct {
	mu       sync.Mutex
	messages []Message
	fail     int // number of initial attempts to fail
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		return errors.New("smtp unavailable")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestDispatcherDeliversAll(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(context.Background(), sender, 4)
	d.Start()

	for i := 0; i < 5; i++ {
		d.Enqueue(Message{To: "a@example.com", Subject: "hi"})
	}
	d.Stop()

	assert.Len(t, sender.messages, 5)
}

func TestDispatcherRetriesDelivery(t *testing.T) {
	sender := &recordingSender{fail: 2}
	d := NewDispatcher(context.Background(), sender, 1)
	d.Start()

	d.Enqueue(Message{To: "b@example.com", Subject: "order"})
	d.Stop()

	assert.Len(t, sender.messages, 1, "delivery succeeds on a later attempt")
}

// stuckSender holds every delivery until release is closed, so the test
// can fill the queue behind a busy worker.
type stuckSender struct {
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
	mu        sync.Mutex
	delivered int
}

func (s *stuckSender) Send(_ context.Context, _ Message) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered++
	return nil
}

func TestEnqueueDoesNotBlockWhenQueueFull(t *testing.T) {
	sender := &stuckSender{started: make(chan struct{}), release: make(chan struct{})}
	d := NewDispatcher(context.Background(), sender, 1)
	d.Start()

	// One message stuck inside the worker, then a full buffer behind it.
	d.Enqueue(Message{To: "a@example.com"})
	<-sender.started
	for i := 0; i < QueueSize; i++ {
		d.Enqueue(Message{To: "a@example.com"})
	}

	done := make(chan struct{})
	go func() {
		d.Enqueue(Message{To: "overflow@example.com"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked with a full queue")
	}

	close(sender.release)
	d.Stop()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, QueueSize+1, sender.delivered, "accepted messages delivered, the overflow dropped")
}

func TestEnqueueAfterStopIsDropped(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(context.Background(), sender, 1)
	d.Start()
	d.Stop()

	d.Enqueue(Message{To: "c@example.com"})
	assert.Empty(t, sender.messages)
}
