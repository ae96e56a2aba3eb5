package store

import (
	"sync"

	"go.uber.org/zap"
)

// broadcaster fans messages out to every listener without ever blocking the
// publisher. When a listener's buffer is full the oldest pending message is
// dropped, so a slow listener always ends up with the most recent one.
type broadcaster[T any] struct {
	name      string
	logger    *zap.Logger
	mu        sync.Mutex
	listeners map[chan T]struct{}
	closed    bool
	numSnd    int
	numSkip   int
}

func newBroadcaster[T any](name string, logger *zap.Logger) *broadcaster[T] {
	return &broadcaster[T]{
		name:      name,
		logger:    logger.With(zap.String("broadcast", name)),
		listeners: map[chan T]struct{}{},
	}
}

func (b *broadcaster[T]) subscribe(buffer int) chan T {
	ch := make(chan T, max(buffer, 1))
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners[ch] = struct{}{}
	return ch
}

func (b *broadcaster[T]) cancelSubscription(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[ch]; ok {
		delete(b.listeners, ch)
		close(ch)
	}
}

func (b *broadcaster[T]) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *broadcaster[T]) publish(msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners {
		b.offer(ch, msg)
	}
}

// send delivers msg to a single listener.
func (b *broadcaster[T]) send(ch chan T, msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[ch]; ok {
		b.offer(ch, msg)
	}
}

// offer must be called with b.mu held.
func (b *broadcaster[T]) offer(ch chan T, msg T) {
	select {
	case ch <- msg:
		b.numSnd++
		return
	default:
	}
	select {
	case <-ch:
		b.numSkip++
	default:
	}
	select {
	case ch <- msg:
		b.numSnd++
	default:
		b.numSkip++
	}
}

func (b *broadcaster[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger.Debug("closing broadcast",
		zap.Int("listeners", len(b.listeners)),
		zap.Int("snd", b.numSnd),
		zap.Int("skip", b.numSkip))
	for ch := range b.listeners {
		close(ch)
	}
	b.listeners = map[chan T]struct{}{}
	b.closed = true
}
