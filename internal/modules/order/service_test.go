package order

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/money"
	"github.com/serviohq/servio-backend/internal/modules/menu"
	"github.com/serviohq/servio-backend/internal/modules/venue"
)

// ── in-memory fakes ───────────────────────────────────────────────────────────

type fakeRepo struct {
	seq    int
	orders map[string]*Order
}

func newFakeRepo() *fakeRepo { return &fakeRepo{orders: map[string]*Order{}} }

func (f *fakeRepo) Create(ctx context.Context, o *Order) error {
	f.seq++
	o.OrderNumber = f.seq
	f.orders[o.ID.String()] = o
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.VenueID.String() != venueID {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

func (f *fakeRepo) ListOpen(ctx context.Context, venueID string) ([]*Order, error) {
	var out []*Order
	for _, o := range f.orders {
		if o.VenueID.String() == venueID && (o.Status == StatusOpen || o.Status == StatusSent) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, o *Order) error                    { return nil }
func (f *fakeRepo) AddItem(ctx context.Context, o *Order, it *OrderItem) error    { return nil }
func (f *fakeRepo) UpdateItem(ctx context.Context, o *Order, it *OrderItem) error { return nil }
func (f *fakeRepo) RemoveItem(ctx context.Context, o *Order, itemID string) error { return nil }
func (f *fakeRepo) MarkItemsSent(ctx context.Context, o *Order) error             { return nil }

type fakeMenu struct {
	items map[string]*menu.MenuItem
	mods  map[string]*menu.Modifier
}

func (f *fakeMenu) GetItem(ctx context.Context, venueID, itemID string) (*menu.MenuItem, error) {
	mi, ok := f.items[itemID]
	if !ok {
		return nil, apperr.NotFound("menu item %s not found", itemID)
	}
	return mi, nil
}

func (f *fakeMenu) GetModifier(ctx context.Context, venueID, modifierID string) (*menu.Modifier, error) {
	m, ok := f.mods[modifierID]
	if !ok {
		return nil, apperr.NotFound("modifier %s not found", modifierID)
	}
	return m, nil
}

type fakeVenues struct{ rate float64 }

func (f *fakeVenues) GetByID(ctx context.Context, venueID string) (*venue.Venue, error) {
	return &venue.Venue{TaxRate: f.rate}, nil
}

func (f *fakeVenues) GetTaxRate(ctx context.Context, venueID string) (float64, error) {
	return f.rate, nil
}

// ── fixtures ──────────────────────────────────────────────────────────────────

type fixture struct {
	svc      Service
	repo     *fakeRepo
	venueID  string
	serverID string
	burgerID string
	steakID  string
	cheeseID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	burger := &menu.MenuItem{ID: uuid.New(), Name: "Burger", Price: 6.50, IsAvailable: true}
	steak := &menu.MenuItem{ID: uuid.New(), Name: "Steak", Price: 12.00, IsAvailable: true}
	cheese := &menu.Modifier{ID: uuid.New(), Name: "Extra Cheese", PriceAdjustment: 1.50}

	repo := newFakeRepo()
	menus := &fakeMenu{
		items: map[string]*menu.MenuItem{burger.ID.String(): burger, steak.ID.String(): steak},
		mods:  map[string]*menu.Modifier{cheese.ID.String(): cheese},
	}
	return &fixture{
		svc:      NewService(repo, menus, &fakeVenues{rate: 0.0825}, nil),
		repo:     repo,
		venueID:  uuid.New().String(),
		serverID: uuid.New().String(),
		burgerID: burger.ID.String(),
		steakID:  steak.ID.String(),
		cheeseID: cheese.ID.String(),
	}
}

func (f *fixture) openOrder(t *testing.T) *Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), f.venueID, f.serverID, CreateOrderRequest{OrderType: "dine_in", GuestCount: 2})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

func checkInvariant(t *testing.T, o *Order) {
	t.Helper()
	if want := money.Round2(o.Subtotal + o.Tax - o.Discount); o.Total != want {
		t.Errorf("total invariant broken: total=%v want subtotal+tax-discount=%v", o.Total, want)
	}
	if o.Discount > o.Subtotal {
		t.Errorf("discount %v exceeds subtotal %v", o.Discount, o.Subtotal)
	}
	for _, it := range o.Items {
		if want := money.ItemTotal(it.Price, it.Quantity, it.ModifierTotal); it.Total != want {
			t.Errorf("item %s total=%v want %v", it.Name, it.Total, want)
		}
	}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestCreateOrderDefaults(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.CreateOrder(context.Background(), f.venueID, f.serverID, CreateOrderRequest{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.Status != StatusOpen {
		t.Errorf("status = %s, want open", o.Status)
	}
	if o.OrderType != TypeDineIn {
		t.Errorf("order type = %s, want dine_in", o.OrderType)
	}
	if o.OrderNumber != 1 {
		t.Errorf("order number = %d, want 1", o.OrderNumber)
	}
	second := f.openOrder(t)
	if second.OrderNumber != 2 {
		t.Errorf("second order number = %d, want 2", second.OrderNumber)
	}
}

func TestCreateOrderRejectsBadType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), f.venueID, f.serverID, CreateOrderRequest{OrderType: "drive_thru"})
	if !apperr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestAddItemComputesTotals(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)

	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{
		MenuItemID: f.burgerID, Quantity: 2,
	}); err != nil {
		t.Fatalf("AddItem burger: %v", err)
	}
	got, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{
		MenuItemID: f.steakID, Quantity: 1,
		Modifiers: []AddItemModifier{{ModifierID: f.cheeseID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("AddItem steak: %v", err)
	}

	if got.Subtotal != 28.00 {
		t.Errorf("subtotal = %v, want 28.00", got.Subtotal)
	}
	if got.Tax != 2.31 {
		t.Errorf("tax = %v, want 2.31", got.Tax)
	}
	if got.Total != 30.31 {
		t.Errorf("total = %v, want 30.31", got.Total)
	}
	steak := got.Items[1]
	if steak.ModifierTotal != 3.00 {
		t.Errorf("modifier total = %v, want 3.00", steak.ModifierTotal)
	}
	if steak.Total != 15.00 {
		t.Errorf("steak line total = %v, want 15.00", steak.Total)
	}
	if steak.Name != "Steak" || steak.Price != 12.00 {
		t.Errorf("snapshot not captured: %s %v", steak.Name, steak.Price)
	}
	checkInvariant(t, got)
}

func TestAddItemModifierQuantityDefaultsToOne(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	got, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{
		MenuItemID: f.burgerID, Quantity: 1,
		Modifiers: []AddItemModifier{{ModifierID: f.cheeseID}},
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got.Items[0].ModifierTotal != 1.50 {
		t.Errorf("modifier total = %v, want 1.50", got.Items[0].ModifierTotal)
	}
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)

	_, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 0})
	if !apperr.IsValidation(err) {
		t.Errorf("zero quantity: want validation error, got %v", err)
	}
	_, err = f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: uuid.New().String(), Quantity: 1})
	if !apperr.IsNotFound(err) {
		t.Errorf("unknown menu item: want not found, got %v", err)
	}
}

func TestItemMutationGatedToOpenOrders(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := o.Items[0].ID.String()
	if _, err := f.svc.SendToKitchen(context.Background(), f.venueID, o.ID.String()); err != nil {
		t.Fatalf("SendToKitchen: %v", err)
	}

	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.steakID, Quantity: 1}); !apperr.IsInvalidOperation(err) {
		t.Errorf("add on sent order: want invalid operation, got %v", err)
	}
	qty := 2
	if _, err := f.svc.UpdateItem(context.Background(), f.venueID, o.ID.String(), itemID, UpdateItemRequest{Quantity: &qty}); !apperr.IsInvalidOperation(err) {
		t.Errorf("update on sent order: want invalid operation, got %v", err)
	}
	if _, err := f.svc.RemoveItem(context.Background(), f.venueID, o.ID.String(), itemID); !apperr.IsInvalidOperation(err) {
		t.Errorf("remove on sent order: want invalid operation, got %v", err)
	}
}

func TestUpdateItemQuantityKeepsModifierTotal(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	got, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{
		MenuItemID: f.steakID, Quantity: 1,
		Modifiers: []AddItemModifier{{ModifierID: f.cheeseID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := got.Items[0].ID.String()

	qty := 3
	got, err = f.svc.UpdateItem(context.Background(), f.venueID, o.ID.String(), itemID, UpdateItemRequest{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	// 12.00*3 + the original 3.00 modifier total; modifiers not re-evaluated.
	if got.Items[0].Total != 39.00 {
		t.Errorf("item total = %v, want 39.00", got.Items[0].Total)
	}
	checkInvariant(t, got)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	got, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := got.Items[0].ID.String()

	got, err = f.svc.RemoveItem(context.Background(), f.venueID, o.ID.String(), itemID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("items remaining = %d, want 0", len(got.Items))
	}
	if got.Subtotal != 0 || got.Total != 0 {
		t.Errorf("totals not recomputed: subtotal=%v total=%v", got.Subtotal, got.Total)
	}

	if _, err := f.svc.RemoveItem(context.Background(), f.venueID, o.ID.String(), uuid.New().String()); !apperr.IsNotFound(err) {
		t.Errorf("remove missing item: want not found, got %v", err)
	}
}

func TestApplyDiscount(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got, err := f.svc.ApplyDiscount(context.Background(), f.venueID, o.ID.String(), 5.00)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if got.Discount != 5.00 {
		t.Errorf("discount = %v, want 5.00", got.Discount)
	}
	checkInvariant(t, got)

	if _, err := f.svc.ApplyDiscount(context.Background(), f.venueID, o.ID.String(), 0); !apperr.IsValidation(err) {
		t.Errorf("zero discount: want validation error, got %v", err)
	}
	if _, err := f.svc.ApplyDiscount(context.Background(), f.venueID, o.ID.String(), 999); !apperr.IsInvalidOperation(err) {
		t.Errorf("oversized discount: want invalid operation, got %v", err)
	}
}

func TestSendToKitchen(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)

	if _, err := f.svc.SendToKitchen(context.Background(), f.venueID, o.ID.String()); !apperr.IsInvalidOperation(err) {
		t.Fatalf("empty order: want invalid operation, got %v", err)
	}

	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	got, err := f.svc.SendToKitchen(context.Background(), f.venueID, o.ID.String())
	if err != nil {
		t.Fatalf("SendToKitchen: %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("status = %s, want sent", got.Status)
	}
	for _, it := range got.Items {
		if it.Status != ItemSent {
			t.Errorf("item status = %s, want sent", it.Status)
		}
		if it.SentToKitchenAt == nil {
			t.Error("sent_to_kitchen_at not stamped")
		}
	}

	if _, err := f.svc.SendToKitchen(context.Background(), f.venueID, o.ID.String()); !apperr.IsInvalidOperation(err) {
		t.Errorf("second send: want invalid operation, got %v", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)

	if _, err := f.svc.CompleteOrder(context.Background(), f.venueID, o.ID.String()); !apperr.IsInvalidOperation(err) {
		t.Fatalf("empty order: want invalid operation, got %v", err)
	}

	if _, err := f.svc.AddItem(context.Background(), f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	got, err := f.svc.CompleteOrder(context.Background(), f.venueID, o.ID.String())
	if err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	// Completing twice is a hard error, not a no-op.
	if _, err := f.svc.CompleteOrder(context.Background(), f.venueID, o.ID.String()); !apperr.IsInvalidOperation(err) {
		t.Errorf("second complete: want invalid operation, got %v", err)
	}
}

func TestVoidOrder(t *testing.T) {
	f := newFixture(t)

	open := f.openOrder(t)
	if _, err := f.svc.VoidOrder(context.Background(), f.venueID, open.ID.String()); err != nil {
		t.Errorf("void open order: %v", err)
	}

	sent := f.openOrder(t)
	if _, err := f.svc.AddItem(context.Background(), f.venueID, sent.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := f.svc.SendToKitchen(context.Background(), f.venueID, sent.ID.String()); err != nil {
		t.Fatalf("SendToKitchen: %v", err)
	}
	if _, err := f.svc.VoidOrder(context.Background(), f.venueID, sent.ID.String()); err != nil {
		t.Errorf("void sent order: %v", err)
	}

	done := f.openOrder(t)
	if _, err := f.svc.AddItem(context.Background(), f.venueID, done.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := f.svc.CompleteOrder(context.Background(), f.venueID, done.ID.String()); err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	_, err := f.svc.VoidOrder(context.Background(), f.venueID, done.ID.String())
	if !apperr.IsInvalidOperation(err) {
		t.Fatalf("void completed order: want invalid operation, got %v", err)
	}
	if !strings.Contains(err.Error(), "completed") {
		t.Errorf("error should mention completed order, got %q", err.Error())
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	got, err := f.svc.CancelOrder(context.Background(), f.venueID, o.ID.String())
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if _, err := f.svc.CancelOrder(context.Background(), f.venueID, o.ID.String()); !apperr.IsInvalidOperation(err) {
		t.Errorf("cancel cancelled order: want invalid operation, got %v", err)
	}
}

func TestVenueIsolation(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	otherVenue := uuid.New().String()
	if _, err := f.svc.GetOrder(context.Background(), otherVenue, o.ID.String()); !apperr.IsNotFound(err) {
		t.Errorf("cross-venue read: want not found, got %v", err)
	}
}

func TestTotalsInvariantAcrossMutations(t *testing.T) {
	f := newFixture(t)
	o := f.openOrder(t)
	ctx := context.Background()

	cur, err := f.svc.AddItem(ctx, f.venueID, o.ID.String(), AddItemRequest{MenuItemID: f.burgerID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	checkInvariant(t, cur)

	cur, err = f.svc.AddItem(ctx, f.venueID, o.ID.String(), AddItemRequest{
		MenuItemID: f.steakID, Quantity: 2,
		Modifiers: []AddItemModifier{{ModifierID: f.cheeseID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	checkInvariant(t, cur)

	qty := 1
	cur, err = f.svc.UpdateItem(ctx, f.venueID, o.ID.String(), cur.Items[0].ID.String(), UpdateItemRequest{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	checkInvariant(t, cur)

	cur, err = f.svc.ApplyDiscount(ctx, f.venueID, o.ID.String(), 2.50)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	checkInvariant(t, cur)

	cur, err = f.svc.RemoveItem(ctx, f.venueID, o.ID.String(), cur.Items[0].ID.String())
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	checkInvariant(t, cur)
}
