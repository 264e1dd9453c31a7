package cart

import "time"

const (
	EventItemAdded     = "cart.item_added"
	EventCouponApplied = "cart.coupon_applied"
)

// ItemAddedEvent is emitted after a line was added or its quantity increased.
type ItemAddedEvent struct {
	UserID     string
	SKU        string
	Quantity   int
	Price      float64
	Total      float64
	OccurredAt time.Time
}

func (ItemAddedEvent) EventName() string { return EventItemAdded }
func (e ItemAddedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewItemAddedEvent(userID, sku string, qty int, price float64, c Cart) ItemAddedEvent {
	return ItemAddedEvent{
		UserID:     userID,
		SKU:        sku,
		Quantity:   qty,
		Price:      price,
		Total:      c.Total(),
		OccurredAt: time.Now().UTC(),
	}
}

// CouponAppliedEvent is emitted after a coupon was accepted for a cart.
type CouponAppliedEvent struct {
	UserID     string
	Code       string
	Discount   float64
	Final      float64
	OccurredAt time.Time
}

func (CouponAppliedEvent) EventName() string { return EventCouponApplied }
func (e CouponAppliedEvent) OccurredOn() time.Time { return e.OccurredAt }

func NewCouponAppliedEvent(userID string, d Discount) CouponAppliedEvent {
	return CouponAppliedEvent{
		UserID:     userID,
		Code:       d.Code,
		Discount:   d.Amount,
		Final:      d.Final,
		OccurredAt: time.Now().UTC(),
	}
}
