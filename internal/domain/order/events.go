package order

import "time"

const EventPlaced = "order.placed"

// PlacedEvent is emitted once an order has been stored.
type PlacedEvent struct {
	OrderID      string
	CustomerName string
	Total        float64
	OccurredAt   time.Time
}

func (PlacedEvent) EventName() string { return EventPlaced }
func (e PlacedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Total:        o.Total,
		OccurredAt:   time.Now().UTC(),
	}
}
