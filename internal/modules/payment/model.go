package payment

import (
	"time"

	"github.com/google/uuid"
)

// Method represents how a payment was settled.
type Method string

const (
	MethodCard     Method = "card"
	MethodCash     Method = "cash"
	MethodCheck    Method = "check"
	MethodGiftCard Method = "gift_card"
	MethodComp     Method = "comp"
)

// Valid reports whether the method is one the ledger accepts.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodCheck, MethodGiftCard, MethodComp:
		return true
	}
	return false
}

// Status represents the state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is one settlement attempt against an order. An order may have
// many payments (split checks). A payment is refunded at most once, fully
// or partially; there is no incremental multi-step refund.
type Payment struct {
	ID         uuid.UUID `json:"id"`
	VenueID    uuid.UUID `json:"venue_id"`
	OrderID    uuid.UUID `json:"order_id"`
	Amount     float64   `json:"amount"`
	TipAmount  float64   `json:"tip_amount"`
	Method     Method    `json:"payment_method"`
	Status     Status    `json:"status"`

	// Card/processor metadata, card method only.
	CardLast4    string  `json:"card_last4,omitempty"`
	CardBrand    string  `json:"card_brand,omitempty"`
	ProcessorRef string  `json:"processor_ref,omitempty"`
	ProcessorFee float64 `json:"processor_fee,omitempty"`

	// Comp metadata, required when the method is comp.
	CompReason string     `json:"comp_reason,omitempty"`
	CompBy     *uuid.UUID `json:"comp_by,omitempty"`

	// Refund state; written exactly once by RefundPayment.
	IsRefunded   bool       `json:"is_refunded"`
	RefundAmount float64    `json:"refund_amount,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	RefundedBy   *uuid.UUID `json:"refunded_by,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

// ProcessPaymentRequest is the payload for settling (part of) an order.
// Split and partial payments are allowed; the balance check is the
// caller's responsibility via IsOrderFullyPaid.
type ProcessPaymentRequest struct {
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"amount"`
	TipAmount     float64 `json:"tip_amount,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	CardNumber    string  `json:"card_number,omitempty"`
	CardBrand     string  `json:"card_brand,omitempty"`
	CompReason    string  `json:"comp_reason,omitempty"`
	CompBy        string  `json:"comp_by,omitempty"` // approver staff id
}

// RefundPaymentRequest is the payload for the single allowed refund.
type RefundPaymentRequest struct {
	RefundAmount float64 `json:"refund_amount"`
	RefundReason string  `json:"refund_reason,omitempty"`
}
