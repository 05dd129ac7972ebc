package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int // Number of calls to fail before succeeding
	calls    int
	sent     []Message
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("relay unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) snapshot() (int, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]Message(nil), s.sent...)
}

func noWait(retries uint64) Option {
	return WithBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	})
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 2, 10, noWait(0))

	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.True(t, d.Enqueue(Message{To: to, Subject: "hi"}))
	}
	require.NoError(t, d.Close(context.Background()))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, sent, 3)
}

func TestDispatcherRetriesFailedSends(t *testing.T) {
	sender := &recordingSender{failures: 2}
	d := NewDispatcher(sender, 1, 1, noWait(3))

	require.True(t, d.Enqueue(Message{To: "a@example.com"}))
	require.NoError(t, d.Close(context.Background()))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, sent, 1)
}

func TestDispatcherGivesUpAfterRetries(t *testing.T) {
	sender := &recordingSender{failures: 100}
	d := NewDispatcher(sender, 1, 1, noWait(2))

	require.True(t, d.Enqueue(Message{To: "a@example.com"}))
	require.NoError(t, d.Close(context.Background()))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, sent)
}

type blockingSender struct{ release chan struct{} }

func (s *blockingSender) Send(ctx context.Context, _ Message) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestDispatcherEnqueueNeverBlocks(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	d := NewDispatcher(sender, 1, 1, noWait(0))

	// One message occupies the worker, one fills the queue; the rest are dropped
	accepted := 0
	deadline := time.After(time.Second)
	for i := 0; i < 5; i++ {
		select {
		case <-deadline:
			t.Fatal("Enqueue blocked")
		default:
		}
		if d.Enqueue(Message{To: "a@example.com"}) {
			accepted++
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, accepted, 1)

	close(sender.release)
	require.NoError(t, d.Close(context.Background()))
	assert.False(t, d.Enqueue(Message{To: "late@example.com"}))
}

func TestDispatcherCloseHonoursContext(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	d := NewDispatcher(sender, 1, 1, noWait(0))
	require.True(t, d.Enqueue(Message{To: "a@example.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}

func TestMessages(t *testing.T) {
	welcome := WelcomeMessage("a@example.com", "<alice>")
	assert.Equal(t, "a@example.com", welcome.To)
	assert.Contains(t, welcome.HTML, "&lt;alice&gt;")
	assert.Contains(t, welcome.Text, "<alice>")

	reset := PasswordResetMessage("a@example.com", "alice", "123456", 10*time.Minute)
	assert.Contains(t, reset.Text, "123456")
	assert.True(t, strings.Contains(reset.HTML, "10 minutes"))
}
