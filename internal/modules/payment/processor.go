package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Processor is the opaque card-processing capability. The engine invokes it
// synchronously: a charge either fully succeeds, returning a transaction
// reference and fee, or fails with an error.
type Processor interface {
	// Charge authorizes and captures the amount (including tip).
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// Refund returns (part of) a captured charge to the card.
	Refund(ctx context.Context, processorRef string, amount float64) error
}

// ChargeRequest carries what the processor needs for a card charge.
type ChargeRequest struct {
	Amount     float64
	CardNumber string
}

// ChargeResult is the processor's answer to a successful charge.
type ChargeResult struct {
	Ref   string  // processor transaction id
	Fee   float64 // processing fee taken by the processor
	Last4 string
}

// ── Stub processor ────────────────────────────────────────────────────────────
// In production, replace with the acquirer's API client. The engine only
// depends on the Processor interface, so swapping it is a wiring change.

type stubProcessor struct {
	feeRate float64
}

// NewStubProcessor returns a processor that approves every charge and takes
// a flat percentage fee. Useful for development and demos.
func NewStubProcessor(feeRate float64) Processor {
	return &stubProcessor{feeRate: feeRate}
}

func (p *stubProcessor) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	last4 := ""
	if n := len(req.CardNumber); n >= 4 {
		last4 = req.CardNumber[n-4:]
	}
	return &ChargeResult{
		Ref:   fmt.Sprintf("TXN-%s-%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
		Fee:   req.Amount * p.feeRate,
		Last4: last4,
	}, nil
}

func (p *stubProcessor) Refund(ctx context.Context, processorRef string, amount float64) error {
	if processorRef == "" {
		return fmt.Errorf("processor reference is required for a card refund")
	}
	return nil
}
