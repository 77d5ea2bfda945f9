// Package store holds the SplitBill entities and the Store contract they
// live behind. Two implementations exist: MemStore (default) and PGStore.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups and patches whose target id does not
// exist. Callers turn it into a 404 at the HTTP boundary; it is never
// wrapped around an internal failure.
var ErrNotFound = errors.New("not found")

// BillStatus is the settlement state of a bill.
type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// Table is a physical restaurant table reachable via its QR code.
// Immutable after creation except through TablePatch.
type Table struct {
	ID             uuid.UUID
	Number         int
	RestaurantName string
	QRCode         string
	IsActive       bool
	CreatedAt      time.Time
}

// Bill is one dining party's running tab for a table.
// Invariant: Remaining == max(0, Total - Paid); Status derives from both.
type Bill struct {
	ID         uuid.UUID
	TableID    uuid.UUID
	Total      decimal.Decimal
	Paid       decimal.Decimal
	Remaining  decimal.Decimal
	Status     BillStatus
	GuestCount int
	IsActive   bool
	StartTime  time.Time
}

// BillItem is one ordered line item, independently payable in fractional
// quantity (a shared bottle can be half paid).
type BillItem struct {
	ID           uuid.UUID
	BillID       uuid.UUID
	Name         string
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	PaidQuantity decimal.Decimal
}

// ItemAllocation attributes part of a payment to a specific bill item.
type ItemAllocation struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Payment is one settlement event against a bill. Created once, never
// mutated.
type Payment struct {
	ID            uuid.UUID
	BillID        uuid.UUID
	Amount        decimal.Decimal
	Tip           decimal.Decimal
	Items         []ItemAllocation
	PaymentMethod string
	Status        string
	ProcessedAt   time.Time
}

// --- Create params ---

type CreateTableParams struct {
	Number         int
	RestaurantName string
	QRCode         string
	IsActive       bool
}

type CreateBillParams struct {
	TableID    uuid.UUID
	Total      decimal.Decimal
	Paid       decimal.Decimal
	Remaining  decimal.Decimal
	Status     BillStatus
	GuestCount int
	IsActive   bool
}

type CreateBillItemParams struct {
	BillID       uuid.UUID
	Name         string
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	PaidQuantity decimal.Decimal
}

type CreatePaymentParams struct {
	BillID        uuid.UUID
	Amount        decimal.Decimal
	Tip           decimal.Decimal
	Items         []ItemAllocation
	PaymentMethod string
	Status        string
}

// --- Patches ---
//
// Patches enumerate the mutable fields per entity explicitly; nil means
// "leave unchanged". Unknown keys in PATCH request bodies never reach the
// store: the HTTP layer decodes into typed requests and drops anything it
// does not name.

type TablePatch struct {
	QRCode   *string
	IsActive *bool
}

type BillPatch struct {
	Total      *decimal.Decimal
	Paid       *decimal.Decimal
	Remaining  *decimal.Decimal
	Status     *BillStatus
	GuestCount *int
	IsActive   *bool
}

type BillItemPatch struct {
	Name         *string
	Price        *decimal.Decimal
	Quantity     *decimal.Decimal
	PaidQuantity *decimal.Decimal
}

// Store is the entity store contract shared by the in-memory and Postgres
// backends. List helpers return entities in creation order, and
// ActiveBillByTable resolves ties (multiple active bills on one table) to
// the oldest by creation order.
type Store interface {
	CreateTable(ctx context.Context, arg CreateTableParams) (Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (Table, error)
	ListTables(ctx context.Context) ([]Table, error)
	TableByNumberAndRestaurant(ctx context.Context, number int, restaurant string) (Table, error)
	UpdateTable(ctx context.Context, id uuid.UUID, patch TablePatch) (Table, error)

	CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	ActiveBillByTable(ctx context.Context, tableID uuid.UUID) (Bill, error)
	ListActiveBills(ctx context.Context) ([]Bill, error)
	UpdateBill(ctx context.Context, id uuid.UUID, patch BillPatch) (Bill, error)

	CreateBillItem(ctx context.Context, arg CreateBillItemParams) (BillItem, error)
	GetBillItem(ctx context.Context, id uuid.UUID) (BillItem, error)
	ItemsByBill(ctx context.Context, billID uuid.UUID) ([]BillItem, error)
	UpdateBillItem(ctx context.Context, id uuid.UUID, patch BillItemPatch) (BillItem, error)

	CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error)
	PaymentsByBill(ctx context.Context, billID uuid.UUID) ([]Payment, error)
}
