package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/events"
	"github.com/serviohq/servio-backend/internal/money"
	"github.com/serviohq/servio-backend/internal/modules/menu"
	"github.com/serviohq/servio-backend/internal/modules/venue"
)

// Service defines the order side of the transaction engine. All operations
// are scoped to the calling venue; serverID identifies the staff member
// acting on the tab.
type Service interface {
	// CreateOrder opens a new tab in status open with a venue+day order number.
	CreateOrder(ctx context.Context, venueID, serverID string, req CreateOrderRequest) (*Order, error)

	// GetOrder retrieves an order with its items.
	GetOrder(ctx context.Context, venueID, orderID string) (*Order, error)

	// GetOrderItems retrieves just the line items of an order.
	GetOrderItems(ctx context.Context, venueID, orderID string) ([]*OrderItem, error)

	// ListOpenOrders returns every open or sent order for the venue.
	ListOpenOrders(ctx context.Context, venueID string) ([]*Order, error)

	// AddItem snapshots a menu item (and modifiers) onto an open order.
	AddItem(ctx context.Context, venueID, orderID string, req AddItemRequest) (*Order, error)

	// UpdateItem changes quantity, notes, or status of a line on an open order.
	UpdateItem(ctx context.Context, venueID, orderID, itemID string, req UpdateItemRequest) (*Order, error)

	// RemoveItem deletes a line and its modifiers from an open order.
	RemoveItem(ctx context.Context, venueID, orderID, itemID string) (*Order, error)

	// ApplyDiscount sets a flat discount, bounded by the current subtotal.
	ApplyDiscount(ctx context.Context, venueID, orderID string, amount float64) (*Order, error)

	// SendToKitchen fires the order to the kitchen, stamping every item.
	SendToKitchen(ctx context.Context, venueID, orderID string) (*Order, error)

	// CompleteOrder closes the tab. Completing twice is an error.
	CompleteOrder(ctx context.Context, venueID, orderID string) (*Order, error)

	// VoidOrder voids any non-completed, non-terminal order.
	VoidOrder(ctx context.Context, venueID, orderID string) (*Order, error)

	// CancelOrder cancels an open or sent order.
	CancelOrder(ctx context.Context, venueID, orderID string) (*Order, error)
}

type service struct {
	repo   Repository
	menus  menu.Repository
	venues venue.Repository
	events *events.Producer
}

// NewService creates the order service. The events producer may be nil.
func NewService(repo Repository, menus menu.Repository, venues venue.Repository, producer *events.Producer) Service {
	return &service{repo: repo, menus: menus, venues: venues, events: producer}
}

func (s *service) CreateOrder(ctx context.Context, venueID, serverID string, req CreateOrderRequest) (*Order, error) {
	vid, err := uuid.Parse(venueID)
	if err != nil {
		return nil, apperr.Validation("invalid venue id")
	}
	sid, err := uuid.Parse(serverID)
	if err != nil {
		return nil, apperr.Validation("invalid server id")
	}
	orderType := OrderType(req.OrderType)
	switch orderType {
	case TypeDineIn, TypeTakeout, TypeDelivery, TypeBar:
	case "":
		orderType = TypeDineIn
	default:
		return nil, apperr.Validation("invalid order_type: %s", req.OrderType)
	}
	if req.GuestCount < 0 {
		return nil, apperr.Validation("guest_count cannot be negative")
	}
	guests := req.GuestCount
	if guests == 0 {
		guests = 1
	}

	now := time.Now().UTC()
	o := &Order{
		ID:          uuid.New(),
		VenueID:     vid,
		ServerID:    sid,
		TableNumber: req.TableNumber,
		GuestCount:  guests,
		OrderType:   orderType,
		Status:      StatusOpen,
		Notes:       req.Notes,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, venueID, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, venueID, orderID)
}

func (s *service) GetOrderItems(ctx context.Context, venueID, orderID string) ([]*OrderItem, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

func (s *service) ListOpenOrders(ctx context.Context, venueID string) ([]*Order, error) {
	return s.repo.ListOpen(ctx, venueID)
}

func (s *service) AddItem(ctx context.Context, venueID, orderID string, req AddItemRequest) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(o); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be a positive integer")
	}

	// Snapshot name and price from the catalog; the line never re-reads it.
	mi, err := s.menus.GetItem(ctx, venueID, req.MenuItemID)
	if err != nil {
		return nil, err
	}
	if mi.Price <= 0 {
		return nil, apperr.Validation("menu item %s has no valid price", mi.Name)
	}

	now := time.Now().UTC()
	item := &OrderItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		MenuItemID: mi.ID,
		Name:       mi.Name,
		Price:      mi.Price,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		Status:     ItemPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var modLines []money.Line
	for _, rm := range req.Modifiers {
		qty := rm.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, apperr.Validation("modifier quantity must be positive")
		}
		mod, err := s.menus.GetModifier(ctx, venueID, rm.ModifierID)
		if err != nil {
			return nil, err
		}
		if mod.PriceAdjustment < 0 {
			return nil, apperr.Validation("modifier %s has a negative price", mod.Name)
		}
		item.Modifiers = append(item.Modifiers, &OrderItemModifier{
			ID:         uuid.New(),
			ItemID:     item.ID,
			ModifierID: mod.ID,
			Name:       mod.Name,
			Price:      mod.PriceAdjustment,
			Quantity:   qty,
		})
		modLines = append(modLines, money.Line{Price: mod.PriceAdjustment, Quantity: qty})
	}
	item.ModifierTotal = money.ModifierTotal(modLines)
	item.Total = money.ItemTotal(item.Price, item.Quantity, item.ModifierTotal)

	o.Items = append(o.Items, item)
	if err := s.recomputeTotals(ctx, o); err != nil {
		return nil, err
	}
	if err := s.repo.AddItem(ctx, o, item); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *service) UpdateItem(ctx context.Context, venueID, orderID, itemID string, req UpdateItemRequest) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(o); err != nil {
		return nil, err
	}
	item := findItem(o, itemID)
	if item == nil {
		return nil, apperr.NotFound("order item %s not found", itemID)
	}

	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be a positive integer")
		}
		item.Quantity = *req.Quantity
		// Modifiers are not re-evaluated; the existing modifier total stands.
		item.Total = money.ItemTotal(item.Price, item.Quantity, item.ModifierTotal)
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	if req.Status != nil {
		st := ItemStatus(*req.Status)
		switch st {
		case ItemPending, ItemSent, ItemPreparing, ItemReady, ItemDelivered:
			item.Status = st
		default:
			return nil, apperr.Validation("invalid item status: %s", *req.Status)
		}
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.recomputeTotals(ctx, o); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, o, item); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *service) RemoveItem(ctx context.Context, venueID, orderID, itemID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(o); err != nil {
		return nil, err
	}
	if findItem(o, itemID) == nil {
		return nil, apperr.NotFound("order item %s not found", itemID)
	}

	kept := o.Items[:0]
	for _, it := range o.Items {
		if it.ID.String() != itemID {
			kept = append(kept, it)
		}
	}
	o.Items = kept

	if err := s.recomputeTotals(ctx, o); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, o, itemID); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *service) ApplyDiscount(ctx context.Context, venueID, orderID string, amount float64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if IsTerminal(o.Status) {
		return nil, apperr.InvalidOperation("cannot modify a closed order")
	}
	if amount <= 0 {
		return nil, apperr.Validation("discount amount must be greater than zero")
	}
	if amount > o.Subtotal {
		return nil, apperr.InvalidOperation("discount cannot exceed order subtotal")
	}

	o.Discount = money.Round2(amount)
	o.Total = money.Round2(o.Subtotal + o.Tax - o.Discount)
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *service) SendToKitchen(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusSent) {
		return nil, apperr.InvalidOperation("cannot send a %s order to the kitchen", o.Status)
	}
	if len(o.Items) == 0 {
		return nil, apperr.InvalidOperation("cannot send an empty order to the kitchen")
	}

	now := time.Now().UTC()
	o.Status = StatusSent
	for _, it := range o.Items {
		it.Status = ItemSent
		t := now
		it.SentToKitchenAt = &t
	}
	if err := s.repo.MarkItemsSent(ctx, o); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *service) CompleteOrder(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCompleted {
		return nil, apperr.InvalidOperation("order is already completed")
	}
	if !CanTransition(o.Status, StatusCompleted) {
		return nil, apperr.InvalidOperation("cannot complete a %s order", o.Status)
	}
	if len(o.Items) == 0 {
		return nil, apperr.InvalidOperation("cannot complete an empty order")
	}

	now := time.Now().UTC()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, mapRepoErr(err)
	}
	s.events.Publish(events.TopicOrderCompleted, o.ID.String(), map[string]interface{}{
		"order_id":     o.ID,
		"venue_id":     o.VenueID,
		"order_number": o.OrderNumber,
		"total":        o.Total,
		"completed_at": now,
	})
	return o, nil
}

func (s *service) VoidOrder(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCompleted {
		return nil, apperr.InvalidOperation("cannot void a completed order")
	}
	if !CanTransition(o.Status, StatusVoided) {
		return nil, apperr.InvalidOperation("cannot void a %s order", o.Status)
	}

	o.Status = StatusVoided
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, mapRepoErr(err)
	}
	s.events.Publish(events.TopicOrderVoided, o.ID.String(), map[string]interface{}{
		"order_id":     o.ID,
		"venue_id":     o.VenueID,
		"order_number": o.OrderNumber,
	})
	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, venueID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return nil, apperr.InvalidOperation("cannot cancel a %s order", o.Status)
	}

	o.Status = StatusCancelled
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// recomputeTotals derives the order-level figures from the current items.
// Invoked synchronously at the end of every item-mutating operation so the
// invariant total == subtotal + tax - discount holds after each call.
func (s *service) recomputeTotals(ctx context.Context, o *Order) error {
	rate, err := s.venues.GetTaxRate(ctx, o.VenueID.String())
	if err != nil {
		if !apperr.IsNotFound(err) {
			return err
		}
		rate = money.DefaultTaxRate
	}

	lines := make([]money.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, money.Line{Price: it.Total, Quantity: 1})
	}
	t := money.OrderTotals(lines, rate)
	o.Subtotal = t.Subtotal
	o.Tax = t.Tax
	if o.Discount > o.Subtotal {
		o.Discount = o.Subtotal
	}
	o.Total = money.Round2(o.Subtotal + o.Tax - o.Discount)
	return nil
}

func ensureMutable(o *Order) error {
	if o.Status != StatusOpen {
		return apperr.InvalidOperation("cannot modify items on a %s order", o.Status)
	}
	return nil
}

func findItem(o *Order, itemID string) *OrderItem {
	for _, it := range o.Items {
		if it.ID.String() == itemID {
			return it
		}
	}
	return nil
}

func mapRepoErr(err error) error {
	if errors.Is(err, ErrVersionConflict) {
		return apperr.Wrap(apperr.KindConflict, err, "order was modified concurrently, retry")
	}
	return err
}
