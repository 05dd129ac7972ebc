package mailer

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Dispatcher queues messages and delivers them from background workers.
// Enqueue never blocks; delivery failures are retried and then logged.
type Dispatcher struct {
	sender     Sender
	queue      chan Message
	newBackOff func() backoff.BackOff

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithBackOff sets the retry policy used for each message
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(d *Dispatcher) { d.newBackOff = newBackOff }
}

// NewDispatcher starts workers goroutines draining a queue of the given size
func NewDispatcher(sender Sender, workers, queueSize int, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Message, queueSize),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue schedules msg for delivery. It reports false when the message was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logrus.WithField("to", msg.To).Warn("Mail dispatcher closed, dropping email")
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		logrus.WithField("to", msg.To).Warn("Mail queue full, dropping email")
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
// If ctx ends first, in-flight retries are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	attempts := 0
	op := func() error {
		attempts++
		return d.sender.Send(d.ctx, msg)
	}
	if err := backoff.Retry(op, backoff.WithContext(d.newBackOff(), d.ctx)); err != nil {
		// Background failures are logged only, never surfaced to the caller
		logrus.WithFields(logrus.Fields{
			"to":       msg.To,
			"subject":  msg.Subject,
			"attempts": attempts,
			"error":    err.Error(),
		}).Error("Email delivery failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"attempts": attempts,
	}).Debug("Email delivered")
}
