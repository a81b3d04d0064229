package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/serviohq/servio-backend/internal/apperr"
)

// ErrVersionConflict is returned when an optimistic update lost the race
// against a concurrent writer on the same order.
var ErrVersionConflict = errors.New("order was modified concurrently")

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Create inserts the order inside a transaction that also claims the next
// order number for the venue+day from a counter row. The upsert serializes
// concurrent creates on the counter row, so numbers never duplicate.
func (r *postgresRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	day := o.CreatedAt.UTC().Format("2006-01-02")
	err = tx.QueryRowContext(ctx, `
		INSERT INTO order_number_counters (venue_id, day, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (venue_id, day)
		DO UPDATE SET last_number = order_number_counters.last_number + 1
		RETURNING last_number`, o.VenueID, day).Scan(&o.OrderNumber)
	if err != nil {
		return fmt.Errorf("assign order number: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, venue_id, server_id, order_number, table_number, guest_count, order_type,
		   status, subtotal, tax, tip, discount, total, notes, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		o.ID, o.VenueID, o.ServerID, o.OrderNumber, o.TableNumber, o.GuestCount, o.OrderType,
		o.Status, o.Subtotal, o.Tax, o.Tip, o.Discount, o.Total, o.Notes, o.Version,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, venueID, orderID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, venue_id, server_id, order_number, table_number, guest_count, order_type,
		       status, subtotal, tax, tip, discount, total, notes, version,
		       created_at, updated_at, completed_at
		FROM orders WHERE id=$1 AND venue_id=$2`, orderID, venueID))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, orderID)
	return o, err
}

func (r *postgresRepo) ListOpen(ctx context.Context, venueID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, venue_id, server_id, order_number, table_number, guest_count, order_type,
		       status, subtotal, tax, tip, discount, total, notes, version,
		       created_at, updated_at, completed_at
		FROM orders WHERE venue_id=$1 AND status IN ($2,$3)
		ORDER BY created_at ASC`, venueID, StatusOpen, StatusSent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := applyOrder(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) AddItem(ctx context.Context, o *Order, item *OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_items
		  (id, order_id, menu_item_id, name, price, quantity, modifier_total, total,
		   notes, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		item.ID, item.OrderID, item.MenuItemID, item.Name, item.Price, item.Quantity,
		item.ModifierTotal, item.Total, item.Notes, item.Status,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order_item: %w", err)
	}

	for _, m := range item.Modifiers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_item_modifiers (id, item_id, modifier_id, name, price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.ItemID, m.ModifierID, m.Name, m.Price, m.Quantity)
		if err != nil {
			return fmt.Errorf("insert order_item_modifier: %w", err)
		}
	}

	if err := applyOrder(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) UpdateItem(ctx context.Context, o *Order, item *OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE order_items SET quantity=$1, notes=$2, status=$3, total=$4, updated_at=$5
		WHERE id=$6 AND order_id=$7`,
		item.Quantity, item.Notes, item.Status, item.Total, time.Now().UTC(),
		item.ID, item.OrderID)
	if err != nil {
		return fmt.Errorf("update order_item: %w", err)
	}

	if err := applyOrder(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) RemoveItem(ctx context.Context, o *Order, itemID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Modifiers are owned by the item; delete them first.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_item_modifiers WHERE item_id=$1`, itemID); err != nil {
		return fmt.Errorf("delete item modifiers: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE id=$1 AND order_id=$2`, itemID, o.ID)
	if err != nil {
		return fmt.Errorf("delete order_item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order item %s not found", itemID)
	}

	if err := applyOrder(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) MarkItemsSent(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE order_items SET status=$1, sent_to_kitchen_at=$2, updated_at=$2
		WHERE order_id=$3`, ItemSent, time.Now().UTC(), o.ID)
	if err != nil {
		return fmt.Errorf("mark items sent: %w", err)
	}

	if err := applyOrder(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

// applyOrder writes the order's mutable columns guarded by the version the
// caller loaded. Zero rows affected means a concurrent writer got there
// first. On success the in-memory version is bumped to match the row.
func applyOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status=$1, subtotal=$2, tax=$3, tip=$4, discount=$5, total=$6, notes=$7,
		    completed_at=$8, version=version+1, updated_at=$9
		WHERE id=$10 AND venue_id=$11 AND version=$12`,
		o.Status, o.Subtotal, o.Tax, o.Tip, o.Discount, o.Total, o.Notes,
		o.CompletedAt, time.Now().UTC(),
		o.ID, o.VenueID, o.Version)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVersionConflict
	}
	o.Version++
	return nil
}

// ── scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var tableNumber sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(&o.ID, &o.VenueID, &o.ServerID, &o.OrderNumber, &tableNumber,
		&o.GuestCount, &o.OrderType, &o.Status, &o.Subtotal, &o.Tax, &o.Tip,
		&o.Discount, &o.Total, &o.Notes, &o.Version,
		&o.CreatedAt, &o.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, err
	}
	if tableNumber.Valid {
		n := int(tableNumber.Int64)
		o.TableNumber = &n
	}
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, name, price, quantity, modifier_total, total,
		       notes, status, sent_to_kitchen_at, created_at, updated_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		var sentAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name,
			&item.Price, &item.Quantity, &item.ModifierTotal, &item.Total,
			&item.Notes, &item.Status, &sentAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			t := sentAt.Time
			item.SentToKitchenAt = &t
		}
		item.Modifiers, err = r.listModifiers(ctx, item.ID.String())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepo) listModifiers(ctx context.Context, itemID string) ([]*OrderItemModifier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_id, modifier_id, name, price, quantity
		FROM order_item_modifiers WHERE item_id=$1`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []*OrderItemModifier
	for rows.Next() {
		m := &OrderItemModifier{}
		if err := rows.Scan(&m.ID, &m.ItemID, &m.ModifierID, &m.Name, &m.Price, &m.Quantity); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
