package payment

import "context"

// Repository defines data access for the payment ledger. Every lookup is
// scoped by venue id.
type Repository interface {
	Create(ctx context.Context, p *Payment) error

	GetByID(ctx context.Context, venueID, paymentID string) (*Payment, error)

	ListByOrder(ctx context.Context, venueID, orderID string) ([]*Payment, error)

	// TotalPaid sums amount + tip_amount over the order's completed,
	// non-refunded payments. A refunded payment, even a partially refunded
	// one, is excluded entirely.
	TotalPaid(ctx context.Context, venueID, orderID string) (float64, error)

	// ApplyRefund writes the refund fields and the refunded status.
	ApplyRefund(ctx context.Context, p *Payment) error
}
