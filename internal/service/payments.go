package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/splitbill-app/api/internal/store"
)

// Errors returned by the payment service.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNegativeTip   = errors.New("tip cannot be negative")
)

// PaymentStore defines the store methods needed to apply a payment.
// Satisfied by store.Store; narrow interface for testability.
type PaymentStore interface {
	GetBill(ctx context.Context, id uuid.UUID) (store.Bill, error)
	UpdateBill(ctx context.Context, id uuid.UUID, patch store.BillPatch) (store.Bill, error)
	GetBillItem(ctx context.Context, id uuid.UUID) (store.BillItem, error)
	UpdateBillItem(ctx context.Context, id uuid.UUID, patch store.BillItemPatch) (store.BillItem, error)
	CreatePayment(ctx context.Context, arg store.CreatePaymentParams) (store.Payment, error)
}

// ApplyPaymentInput is one settlement event against a bill.
type ApplyPaymentInput struct {
	BillID        uuid.UUID
	Amount        decimal.Decimal
	Tip           decimal.Decimal
	Items         []store.ItemAllocation
	PaymentMethod string
	Status        string
}

// ApplyPaymentResult carries the stored payment and the bill as it looks
// after reconciliation.
type ApplyPaymentResult struct {
	Payment store.Payment
	Bill    store.Bill
}

// Payments applies settlement events to bills. Apply is serialized per bill
// so the read-modify-write of paid/remaining/status is atomic against
// concurrent payments on the same bill; payments on different bills proceed
// in parallel.
type Payments struct {
	store PaymentStore

	mu        sync.Mutex
	billLocks map[uuid.UUID]*sync.Mutex
}

// NewPayments creates a new payment service.
func NewPayments(st PaymentStore) *Payments {
	return &Payments{
		store:     st,
		billLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Payments) billLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.billLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.billLocks[id] = l
	}
	return l
}

// Apply records a payment against a bill and reconciles the bill's
// paid/remaining/status fields plus the paid quantity of each allocated
// item. It is deliberately NOT idempotent: every call is an additive
// settlement event, so callers must deliver a given payment at most once.
//
// A payment against an unknown bill is rejected with store.ErrNotFound and
// leaves no payment record.
func (s *Payments) Apply(ctx context.Context, in ApplyPaymentInput) (ApplyPaymentResult, error) {
	if in.Amount.Sign() <= 0 {
		return ApplyPaymentResult{}, ErrInvalidAmount
	}
	if in.Tip.Sign() < 0 {
		return ApplyPaymentResult{}, ErrNegativeTip
	}

	lock := s.billLock(in.BillID)
	lock.Lock()
	defer lock.Unlock()

	bill, err := s.store.GetBill(ctx, in.BillID)
	if err != nil {
		return ApplyPaymentResult{}, err
	}

	effective := in.Amount.Add(in.Tip)
	newPaid := bill.Paid.Add(effective).Round(2)

	// Status derives from the unclamped balance; remaining itself is
	// clamped so an overpaying final settlement lands on exactly 0.00.
	balance := bill.Total.Sub(newPaid)
	newRemaining := balance
	if newRemaining.Sign() < 0 {
		newRemaining = decimal.Zero
	}
	newRemaining = newRemaining.Round(2)

	status := store.BillStatusUnpaid
	switch {
	case balance.Sign() <= 0:
		status = store.BillStatusPaid
	case newPaid.Sign() > 0:
		status = store.BillStatusPartial
	}

	updated, err := s.store.UpdateBill(ctx, bill.ID, store.BillPatch{
		Paid:      &newPaid,
		Remaining: &newRemaining,
		Status:    &status,
	})
	if err != nil {
		return ApplyPaymentResult{}, err
	}

	// Allocations referencing unknown items are skipped without failing
	// the payment; paid quantities accumulate additively and are not
	// bounded by the item quantity.
	for _, alloc := range in.Items {
		if alloc.ItemID == uuid.Nil || alloc.Quantity.Sign() <= 0 {
			continue
		}
		item, err := s.store.GetBillItem(ctx, alloc.ItemID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return ApplyPaymentResult{}, err
		}
		newQty := item.PaidQuantity.Add(alloc.Quantity).Round(2)
		if _, err := s.store.UpdateBillItem(ctx, item.ID, store.BillItemPatch{
			PaidQuantity: &newQty,
		}); err != nil {
			return ApplyPaymentResult{}, err
		}
	}

	method := in.PaymentMethod
	if method == "" {
		method = "card"
	}
	paymentStatus := in.Status
	if paymentStatus == "" {
		paymentStatus = "completed"
	}

	payment, err := s.store.CreatePayment(ctx, store.CreatePaymentParams{
		BillID:        in.BillID,
		Amount:        in.Amount,
		Tip:           in.Tip,
		Items:         in.Items,
		PaymentMethod: method,
		Status:        paymentStatus,
	})
	if err != nil {
		return ApplyPaymentResult{}, err
	}

	return ApplyPaymentResult{Payment: payment, Bill: updated}, nil
}
