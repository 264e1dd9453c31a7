// Package outbox defines how use cases announce domain events and how
// in-process consumers receive them.
package outbox

import (
	"context"
	"time"
)

// Event is a domain event. EventName is its routing key, e.g. "cart.item_added".
type Event interface {
	EventName() string
}

// Timestamped events know when they happened. Consumers use it to report
// delivery lag.
type Timestamped interface {
	Event
	OccurredOn() time.Time
}

type Handler func(ctx context.Context, e Event) error

// Publisher is what use cases depend on. Publishing is best effort and never
// blocks longer than ctx allows.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers a handler for one event name. Several handlers may
// share a name; each gets every event.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
