package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Broker manages event distribution to multiple subscribers.
// It fans each published event out to all registered subscribers.
type Broker struct {
	subscribers []Subscriber
	events      chan Event
	register    chan Subscriber
	unregister  chan Subscriber
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewBroker creates a new event broker.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		subscribers: make([]Subscriber, 0),
		events:      make(chan Event, 256),
		register:    make(chan Subscriber),
		unregister:  make(chan Subscriber),
		done:        make(chan struct{}),
		logger:      logger,
		now:         time.Now,
	}
}

// Run starts the broker's event loop. Should be called in a goroutine.
// The broker will run until the context is cancelled.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for _, sub := range b.subscribers {
				_ = sub.Close()
			}
			b.subscribers = nil
			b.mu.Unlock()
			b.logger.Info().Msg("Event broker shut down")
			return

		case sub := <-b.register:
			b.mu.Lock()
			b.subscribers = append(b.subscribers, sub)
			total := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().
				Int("total_subscribers", total).
				Msg("Subscriber registered")

		case sub := <-b.unregister:
			b.mu.Lock()
			for i, s := range b.subscribers {
				if s == sub {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					_ = s.Close()
					break
				}
			}
			total := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().
				Int("total_subscribers", total).
				Msg("Subscriber unregistered")

		case event := <-b.events:
			b.mu.RLock()
			subs := make([]Subscriber, len(b.subscribers))
			copy(subs, b.subscribers)
			b.mu.RUnlock()

			// Transports buffer internally, so delivery is sequential and
			// subscribers observe events in publish order.
			for _, sub := range subs {
				if err := sub.Send(event); err != nil {
					b.logger.Warn().
						Err(err).
						Str("event_type", string(event.Type)).
						Msg("Failed to send event to subscriber")
				}
			}

			b.logger.Debug().
				Str("event_type", string(event.Type)).
				Int("subscribers", len(subs)).
				Msg("Event broadcasted")
		}
	}
}

// Publish sends an event to all subscribers. It never blocks; events are
// dropped when the queue is full.
func (b *Broker) Publish(eventType EventType, data any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: b.now().UTC(),
		Data:      data,
	}

	select {
	case b.events <- event:
	default:
		b.logger.Warn().
			Str("event_type", string(eventType)).
			Msg("Event channel full, event dropped")
	}
}

// Subscribe registers a new subscriber to receive events. It returns
// without registering once the broker has stopped.
func (b *Broker) Subscribe(sub Subscriber) {
	select {
	case b.register <- sub:
	case <-b.done:
	}
}

// Unsubscribe removes a subscriber from receiving events.
func (b *Broker) Unsubscribe(sub Subscriber) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
