package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/serviohq/servio-backend/internal/apperr"
	"github.com/serviohq/servio-backend/internal/events"
	"github.com/serviohq/servio-backend/internal/money"
	"github.com/serviohq/servio-backend/internal/modules/order"
)

// OrderDirectory is the narrow order lookup the ledger needs. The order
// service satisfies it.
type OrderDirectory interface {
	GetOrder(ctx context.Context, venueID, orderID string) (*order.Order, error)
}

// Service defines the payment side of the transaction engine.
type Service interface {
	// ProcessPayment settles (part of) an order. It does not check the
	// amount against the order balance; split payments are allowed.
	ProcessPayment(ctx context.Context, venueID string, req ProcessPaymentRequest) (*Payment, error)

	// RefundPayment refunds a payment fully or partially, exactly once.
	RefundPayment(ctx context.Context, venueID, paymentID, refundedBy string, req RefundPaymentRequest) (*Payment, error)

	// GetPayment retrieves one payment.
	GetPayment(ctx context.Context, venueID, paymentID string) (*Payment, error)

	// GetPaymentsByOrder lists every payment recorded against an order.
	GetPaymentsByOrder(ctx context.Context, venueID, orderID string) ([]*Payment, error)

	// GetTotalPaidAmount sums amount+tip over the order's non-refunded
	// payments.
	GetTotalPaidAmount(ctx context.Context, venueID, orderID string) (float64, error)

	// IsOrderFullyPaid reports whether the paid total covers the order total.
	IsOrderFullyPaid(ctx context.Context, venueID, orderID string) (bool, error)
}

type service struct {
	repo      Repository
	orders    OrderDirectory
	processor Processor
	events    *events.Producer
}

// NewService creates the payment service. The events producer may be nil.
func NewService(repo Repository, orders OrderDirectory, processor Processor, producer *events.Producer) Service {
	return &service{repo: repo, orders: orders, processor: processor, events: producer}
}

func (s *service) ProcessPayment(ctx context.Context, venueID string, req ProcessPaymentRequest) (*Payment, error) {
	if req.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if req.TipAmount < 0 {
		return nil, apperr.Validation("tip amount cannot be negative")
	}
	method := Method(req.PaymentMethod)
	if !method.Valid() {
		return nil, apperr.Validation("invalid payment_method: %s", req.PaymentMethod)
	}

	// The order must exist and belong to the caller's venue.
	o, err := s.orders.GetOrder(ctx, venueID, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Payment{
		ID:          uuid.New(),
		VenueID:     o.VenueID,
		OrderID:     o.ID,
		Amount:      money.Round2(req.Amount),
		TipAmount:   money.Round2(req.TipAmount),
		Method:      method,
		Status:      StatusCompleted,
		ProcessedAt: now,
		CreatedAt:   now,
	}

	if method == MethodComp {
		if req.CompReason == "" {
			return nil, apperr.InvalidOperation("Comp reason is required")
		}
		if req.CompBy == "" {
			return nil, apperr.InvalidOperation("Comp approver is required")
		}
		approver, err := uuid.Parse(req.CompBy)
		if err != nil {
			return nil, apperr.Validation("invalid comp approver id")
		}
		p.CompReason = req.CompReason
		p.CompBy = &approver
	}

	if method == MethodCard {
		// Charges are synchronous: either the processor answers with a
		// transaction reference or the payment is recorded as failed.
		result, err := s.processor.Charge(ctx, ChargeRequest{
			Amount:     money.Round2(req.Amount + req.TipAmount),
			CardNumber: req.CardNumber,
		})
		if err != nil {
			p.Status = StatusFailed
			if createErr := s.repo.Create(ctx, p); createErr != nil {
				return nil, createErr
			}
			return nil, apperr.Wrap(apperr.KindInvalidOperation, err, "card charge declined")
		}
		p.ProcessorRef = result.Ref
		p.ProcessorFee = money.Round2(result.Fee)
		p.CardLast4 = result.Last4
		p.CardBrand = req.CardBrand
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(events.TopicPaymentProcessed, p.ID.String(), map[string]interface{}{
		"payment_id":     p.ID,
		"venue_id":       p.VenueID,
		"order_id":       p.OrderID,
		"amount":         p.Amount,
		"tip_amount":     p.TipAmount,
		"payment_method": p.Method,
	})
	return p, nil
}

func (s *service) RefundPayment(ctx context.Context, venueID, paymentID, refundedBy string, req RefundPaymentRequest) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, venueID, paymentID)
	if err != nil {
		return nil, err
	}
	if p.IsRefunded {
		return nil, apperr.InvalidOperation("Payment already refunded")
	}
	if req.RefundAmount <= 0 {
		return nil, apperr.Validation("refund amount must be greater than zero")
	}
	if req.RefundAmount > p.Amount {
		return nil, apperr.InvalidOperation("Refund amount cannot exceed payment amount")
	}

	by, err := uuid.Parse(refundedBy)
	if err != nil {
		return nil, apperr.Validation("invalid refunded_by id")
	}

	if p.Method == MethodCard {
		if err := s.processor.Refund(ctx, p.ProcessorRef, req.RefundAmount); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidOperation, err, "card refund failed")
		}
	}

	now := time.Now().UTC()
	p.IsRefunded = true
	p.RefundAmount = money.Round2(req.RefundAmount)
	p.RefundReason = req.RefundReason
	p.RefundedAt = &now
	p.RefundedBy = &by
	p.Status = StatusRefunded

	if err := s.repo.ApplyRefund(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(events.TopicPaymentRefunded, p.ID.String(), map[string]interface{}{
		"payment_id":    p.ID,
		"venue_id":      p.VenueID,
		"order_id":      p.OrderID,
		"refund_amount": p.RefundAmount,
	})
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, venueID, paymentID string) (*Payment, error) {
	return s.repo.GetByID(ctx, venueID, paymentID)
}

func (s *service) GetPaymentsByOrder(ctx context.Context, venueID, orderID string) ([]*Payment, error) {
	if _, err := s.orders.GetOrder(ctx, venueID, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrder(ctx, venueID, orderID)
}

func (s *service) GetTotalPaidAmount(ctx context.Context, venueID, orderID string) (float64, error) {
	total, err := s.repo.TotalPaid(ctx, venueID, orderID)
	if err != nil {
		return 0, err
	}
	return money.Round2(total), nil
}

func (s *service) IsOrderFullyPaid(ctx context.Context, venueID, orderID string) (bool, error) {
	o, err := s.orders.GetOrder(ctx, venueID, orderID)
	if err != nil {
		return false, err
	}
	paid, err := s.GetTotalPaidAmount(ctx, venueID, orderID)
	if err != nil {
		return false, err
	}
	return paid >= o.Total, nil
}
