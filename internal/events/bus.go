package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler consumes a published payload. Handlers run on the dispatcher
// goroutine, in subscription order.
type Handler func(ctx context.Context, payload any)

type message struct {
	topic   string
	payload any
}

// Bus is a bounded in-process publish/subscribe channel. Publish never blocks
// the caller: when the queue is full the message is dropped and logged.
type Bus struct {
	log   *zap.Logger
	queue chan message

	mu       sync.RWMutex
	handlers map[string][]Handler
	stopped  bool

	inflight sync.WaitGroup
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewBus(log *zap.Logger, size int) *Bus {
	if size <= 0 {
		size = 256
	}
	return &Bus{
		log:      log.Named("events.bus"),
		queue:    make(chan message, size),
		handlers: map[string][]Handler{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler for a topic. Registration is synchronous and
// expected to happen before Start.
func (b *Bus) Subscribe(topic string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	b.mu.Unlock()
}

// Publish enqueues a message for asynchronous delivery. Publishing after
// Stop drops the message: the dispatcher has drained and nothing would ever
// deliver it.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.log.Warn("bus stopped, dropping message", zap.String("topic", topic))
		return
	}

	b.inflight.Add(1)
	select {
	case b.queue <- message{topic: topic, payload: payload}:
	default:
		b.inflight.Done()
		b.log.Warn("event queue full, dropping message", zap.String("topic", topic))
	}
}

// Start launches the dispatcher goroutine.
func (b *Bus) Start() {
	go b.dispatch()
}

// Stop drains in-flight messages and shuts the dispatcher down. The write
// lock waits out publishes already past the stopped check, so everything in
// the queue when the dispatcher drains is everything there will ever be.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.once.Do(func() { close(b.stop) })
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every published message has been delivered. Used by
// shutdown and tests; new publishes during Wait extend the wait.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		select {
		case msg := <-b.queue:
			b.deliver(msg)
		case <-b.stop:
			for {
				select {
				case msg := <-b.queue:
					b.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(msg message) {
	defer b.inflight.Done()

	b.mu.RLock()
	handlers := b.handlers[msg.topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(msg, h)
	}
}

func (b *Bus) invoke(msg message, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("topic", msg.topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(context.Background(), msg.payload)
}
