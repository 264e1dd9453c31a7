package workerpresentation

import (
	"context"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	dominventory "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
)

// ActivityEvents are the domain events the activity worker records.
var ActivityEvents = []string{
	domcart.EventItemAdded,
	domcart.EventCouponApplied,
	dominventory.EventReserved,
	dominventory.EventConfirmed,
	domorder.EventPlaced,
}

// ActivityWorker writes one log line per domain event and counts them.
type ActivityWorker struct {
	subscriber domoutbox.Subscriber
	service    string
	log        observability.Logger
	events     observability.Counter
}

func NewActivityWorker(service string, subscriber domoutbox.Subscriber, tel observability.Observability) *ActivityWorker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ActivityWorker{
		subscriber: subscriber,
		service:    service,
		log:        tel.Logger().With(observability.F("component", "activity_worker")),
		events:     tel.Metrics().Counter(observability.MDomainEvents),
	}
}

func (w *ActivityWorker) Start() {
	if w.subscriber == nil {
		return
	}
	for _, name := range ActivityEvents {
		w.subscriber.Subscribe(name, w.handle)
	}
}

func (w *ActivityWorker) handle(ctx context.Context, e domoutbox.Event) error {
	name := e.EventName()
	ctx = WithEventContext(ctx, w.log, map[string]string{"event": name, "service": w.service})
	w.events.Add(1, observability.L("event", name))

	logger := logctx.FromOr(ctx, w.log)
	if ts, ok := e.(domoutbox.Timestamped); ok && !ts.OccurredOn().IsZero() {
		logger = logger.With(observability.F("lag_seconds", time.Since(ts.OccurredOn()).Seconds()))
	}
	switch evt := e.(type) {
	case domcart.ItemAddedEvent:
		logger.Info("cart_item_added",
			observability.F("user", evt.UserID),
			observability.F("sku", evt.SKU),
			observability.F("qty", evt.Quantity),
			observability.F("price", evt.Price),
			observability.F("total", evt.Total),
		)
	case domcart.CouponAppliedEvent:
		logger.Info("cart_coupon_applied",
			observability.F("user", evt.UserID),
			observability.F("code", evt.Code),
			observability.F("discount", evt.Discount),
			observability.F("final", evt.Final),
		)
	case dominventory.ReservedEvent:
		logger.Info("inventory_reserved",
			observability.F("store_id", evt.StoreID),
			observability.F("sku", evt.SKU),
			observability.F("qty", evt.Quantity),
		)
	case dominventory.ConfirmedEvent:
		logger.Info("inventory_confirmed",
			observability.F("store_id", evt.StoreID),
			observability.F("sku", evt.SKU),
			observability.F("qty", evt.Quantity),
		)
	case domorder.PlacedEvent:
		logger.Info("order_placed",
			observability.F("order_id", evt.OrderID),
			observability.F("customer", evt.CustomerName),
			observability.F("total", evt.Total),
		)
	default:
		logger.Debug("domain_event_observed")
	}
	return nil
}
