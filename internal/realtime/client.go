package realtime

import "sync"

// client represents one connected websocket session.
//
// send is intentionally never closed so concurrent broadcasters cannot panic
// on a closed channel; done signals the session goroutines to stop instead.
type client struct {
	connID string
	send   chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(connID string, sendQueueSize int) *client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}

	return &client{
		connID: connID,
		send:   make(chan Envelope, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Done returns a channel closed when the client is shutting down.
func (c *client) Done() <-chan struct{} {
	return c.done
}

// Close signals the session goroutines to stop. Idempotent.
func (c *client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// trySend queues an envelope without blocking. A full queue or a closing
// client drops the message; presence traffic is best-effort.
func (c *client) trySend(env Envelope) {
	select {
	case <-c.done:
	case c.send <- env:
	default:
	}
}
