// Package notify provides the process-wide data-changed broadcast.
package notify

import "sync"

// Handler is invoked once per data-changed notification.
type Handler func()

// Notifier is a single broadcast point for "data changed" signals. Mutating
// operations call Notify exactly once per logical user action; subscribers
// receive notifications asynchronously but in the order they were raised, on
// one delivery goroutine, so handlers never run concurrently with each other.
type Notifier struct {
	queue    chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	handlers []Handler
	mu       sync.Mutex
	once     sync.Once
}

// New creates a Notifier and starts its delivery goroutine.
func New() *Notifier {
	n := &Notifier{
		queue:   make(chan struct{}, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.stopped)
	for {
		select {
		case <-n.done:
			return
		case <-n.queue:
			n.mu.Lock()
			handlers := make([]Handler, len(n.handlers))
			copy(handlers, n.handlers)
			n.mu.Unlock()

			for _, h := range handlers {
				h()
			}
		}
	}
}

// Subscribe registers a handler. Handlers registered after a notification was
// raised but before it was delivered still receive it.
func (n *Notifier) Subscribe(h Handler) {
	if h == nil {
		return
	}
	n.mu.Lock()
	n.handlers = append(n.handlers, h)
	n.mu.Unlock()
}

// Notify enqueues one data-changed notification. It returns without waiting
// for delivery; raising order is preserved.
func (n *Notifier) Notify() {
	select {
	case n.queue <- struct{}{}:
	case <-n.done:
	}
}

// Close stops delivery. Pending notifications may be dropped; Notify after
// Close is a no-op.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
	<-n.stopped
}
