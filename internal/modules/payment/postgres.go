package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/serviohq/servio-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments
		  (id, venue_id, order_id, amount, tip_amount, payment_method, status,
		   card_last4, card_brand, processor_ref, processor_fee,
		   comp_reason, comp_by, is_refunded, processed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.VenueID, p.OrderID, p.Amount, p.TipAmount, p.Method, p.Status,
		p.CardLast4, p.CardBrand, p.ProcessorRef, p.ProcessorFee,
		p.CompReason, p.CompBy, p.IsRefunded, p.ProcessedAt, p.CreatedAt)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, venueID, paymentID string) (*Payment, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, venue_id, order_id, amount, tip_amount, payment_method, status,
		       card_last4, card_brand, processor_ref, processor_fee,
		       comp_reason, comp_by, is_refunded, refund_amount, refund_reason,
		       refunded_at, refunded_by, processed_at, created_at
		FROM payments WHERE id=$1 AND venue_id=$2`, paymentID, venueID))
}

func (r *postgresRepo) ListByOrder(ctx context.Context, venueID, orderID string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, venue_id, order_id, amount, tip_amount, payment_method, status,
		       card_last4, card_brand, processor_ref, processor_fee,
		       comp_reason, comp_by, is_refunded, refund_amount, refund_reason,
		       refunded_at, refunded_by, processed_at, created_at
		FROM payments WHERE order_id=$1 AND venue_id=$2 ORDER BY created_at ASC`,
		orderID, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresRepo) TotalPaid(ctx context.Context, venueID, orderID string) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount + tip_amount)
		FROM payments
		WHERE order_id=$1 AND venue_id=$2 AND status=$3 AND is_refunded=false`,
		orderID, venueID, StatusCompleted).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (r *postgresRepo) ApplyRefund(ctx context.Context, p *Payment) error {
	// is_refunded=false in the predicate makes the refund exactly-once even
	// under concurrent attempts.
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET is_refunded=true, refund_amount=$1, refund_reason=$2,
		    refunded_at=$3, refunded_by=$4, status=$5
		WHERE id=$6 AND venue_id=$7 AND is_refunded=false`,
		p.RefundAmount, p.RefundReason, p.RefundedAt, p.RefundedBy, StatusRefunded,
		p.ID, p.VenueID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.InvalidOperation("Payment already refunded")
	}
	return nil
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var cardLast4, cardBrand, processorRef, compReason, refundReason sql.NullString
	var processorFee, refundAmount sql.NullFloat64
	var compBy, refundedBy sql.NullString
	var refundedAt sql.NullTime
	err := row.Scan(&p.ID, &p.VenueID, &p.OrderID, &p.Amount, &p.TipAmount,
		&p.Method, &p.Status, &cardLast4, &cardBrand, &processorRef, &processorFee,
		&compReason, &compBy, &p.IsRefunded, &refundAmount, &refundReason,
		&refundedAt, &refundedBy, &p.ProcessedAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, err
	}
	p.CardLast4 = cardLast4.String
	p.CardBrand = cardBrand.String
	p.ProcessorRef = processorRef.String
	p.ProcessorFee = processorFee.Float64
	p.CompReason = compReason.String
	p.RefundAmount = refundAmount.Float64
	p.RefundReason = refundReason.String
	if compBy.Valid {
		uid, _ := uuid.Parse(compBy.String)
		p.CompBy = &uid
	}
	if refundedBy.Valid {
		uid, _ := uuid.Parse(refundedBy.String)
		p.RefundedBy = &uid
	}
	if refundedAt.Valid {
		t := refundedAt.Time
		p.RefundedAt = &t
	}
	return p, nil
}
