package inventory

import "time"

const (
	EventReserved  = "inventory.reserved"
	EventConfirmed = "inventory.confirmed"
)

// ReservedEvent is emitted when units move from available to reserved.
type ReservedEvent struct {
	StoreID    string
	SKU        string
	Quantity   int
	OccurredAt time.Time
}

func (ReservedEvent) EventName() string { return EventReserved }
func (e ReservedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewReservedEvent(storeID, sku string, qty int) ReservedEvent {
	return ReservedEvent{StoreID: storeID, SKU: sku, Quantity: qty, OccurredAt: time.Now().UTC()}
}

// ConfirmedEvent is emitted when reserved units are consumed.
type ConfirmedEvent struct {
	StoreID    string
	SKU        string
	Quantity   int
	OccurredAt time.Time
}

func (ConfirmedEvent) EventName() string { return EventConfirmed }
func (e ConfirmedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewConfirmedEvent(storeID, sku string, qty int) ConfirmedEvent {
	return ConfirmedEvent{StoreID: storeID, SKU: sku, Quantity: qty, OccurredAt: time.Now().UTC()}
}
