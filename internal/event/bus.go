package event

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, e model.Event)
}

// Sink receives every event published on the bus, in publish order.
type Sink interface {
	Publish(ctx context.Context, e model.Event) error
}

// Bus fans events out to channel subscribers and sinks. A subscriber whose
// buffer is full misses the event; sinks are called inline.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan model.Event
	nextID int
	sinks  []Sink
	logger logger.ZapLogger
	now    func() time.Time
}

func NewBus(log logger.ZapLogger) *Bus {
	return &Bus{
		subs:   make(map[int]chan model.Event),
		logger: log,
		now:    time.Now,
	}
}

func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Subscribe registers a buffered channel. The returned func unsubscribes and
// closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(ctx context.Context, e model.Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("dropping event for slow subscriber", zap.String("type", string(e.Type)))
		}
	}
	for _, s := range b.sinks {
		if err := s.Publish(ctx, e); err != nil {
			b.logger.Error("event sink failed", zap.String("type", string(e.Type)), zap.Error(err))
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, model.Event) {}
