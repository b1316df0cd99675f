package web

import (
	"sync"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// Broadcaster fans out live frames to websocket listeners.
// It keeps the most recent frame so new subscribers get an immediate sample.
// A nil *Broadcaster is valid and does nothing.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan LiveFrame
	nextID   int
	last     LiveFrame
	haveLast bool
	closed   bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan LiveFrame)}
}

// Subscribe registers a listener. The channel is closed by Unsubscribe or Close.
func (b *Broadcaster) Subscribe(buffer int) (int, <-chan LiveFrame) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan LiveFrame, buffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return -1, ch
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	have := b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active listeners.
func (b *Broadcaster) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish sends the reading to every listener without blocking.
// Slow listeners miss frames.
func (b *Broadcaster) Publish(rd logic.Reading) {
	if b == nil {
		return
	}
	f := NewLiveFrame(rd)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- f:
		default:
		}
	}
	b.last = f
	b.haveLast = true
}

// Close closes every listener channel. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
	b.mu.Unlock()
}
