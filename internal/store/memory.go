package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is the default Store backend: plain maps plus explicit insertion
// order, guarded by one RWMutex. Creation order is tracked per entity kind
// because Go map iteration order is undefined and the list helpers promise
// creation order.
type MemStore struct {
	mu sync.RWMutex

	tables     map[uuid.UUID]Table
	tableOrder []uuid.UUID

	bills     map[uuid.UUID]Bill
	billOrder []uuid.UUID

	items     map[uuid.UUID]BillItem
	itemOrder []uuid.UUID

	payments     map[uuid.UUID]Payment
	paymentOrder []uuid.UUID
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		tables:   make(map[uuid.UUID]Table),
		bills:    make(map[uuid.UUID]Bill),
		items:    make(map[uuid.UUID]BillItem),
		payments: make(map[uuid.UUID]Payment),
	}
}

// --- Tables ---

func (s *MemStore) CreateTable(_ context.Context, arg CreateTableParams) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Table{
		ID:             uuid.New(),
		Number:         arg.Number,
		RestaurantName: arg.RestaurantName,
		QRCode:         arg.QRCode,
		IsActive:       arg.IsActive,
		CreatedAt:      time.Now(),
	}
	s.tables[t.ID] = t
	s.tableOrder = append(s.tableOrder, t.ID)
	return t, nil
}

func (s *MemStore) GetTable(_ context.Context, id uuid.UUID) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return Table{}, ErrNotFound
	}
	return t, nil
}

func (s *MemStore) ListTables(_ context.Context) ([]Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Table, 0, len(s.tableOrder))
	for _, id := range s.tableOrder {
		result = append(result, s.tables[id])
	}
	return result, nil
}

func (s *MemStore) TableByNumberAndRestaurant(_ context.Context, number int, restaurant string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.tableOrder {
		t := s.tables[id]
		if t.Number == number && t.RestaurantName == restaurant {
			return t, nil
		}
	}
	return Table{}, ErrNotFound
}

func (s *MemStore) UpdateTable(_ context.Context, id uuid.UUID, patch TablePatch) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[id]
	if !ok {
		return Table{}, ErrNotFound
	}
	if patch.QRCode != nil {
		t.QRCode = *patch.QRCode
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	s.tables[id] = t
	return t, nil
}

// --- Bills ---

func (s *MemStore) CreateBill(_ context.Context, arg CreateBillParams) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := Bill{
		ID:         uuid.New(),
		TableID:    arg.TableID,
		Total:      arg.Total,
		Paid:       arg.Paid,
		Remaining:  arg.Remaining,
		Status:     arg.Status,
		GuestCount: arg.GuestCount,
		IsActive:   arg.IsActive,
		StartTime:  time.Now(),
	}
	s.bills[b.ID] = b
	s.billOrder = append(s.billOrder, b.ID)
	return b, nil
}

func (s *MemStore) GetBill(_ context.Context, id uuid.UUID) (Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bills[id]
	if !ok {
		return Bill{}, ErrNotFound
	}
	return b, nil
}

// ActiveBillByTable returns the oldest active bill for the table. A table is
// expected to carry at most one active bill; if callers ever violate that,
// creation order makes the winner deterministic.
func (s *MemStore) ActiveBillByTable(_ context.Context, tableID uuid.UUID) (Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.billOrder {
		b := s.bills[id]
		if b.TableID == tableID && b.IsActive {
			return b, nil
		}
	}
	return Bill{}, ErrNotFound
}

func (s *MemStore) ListActiveBills(_ context.Context) ([]Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Bill
	for _, id := range s.billOrder {
		if b := s.bills[id]; b.IsActive {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *MemStore) UpdateBill(_ context.Context, id uuid.UUID, patch BillPatch) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[id]
	if !ok {
		return Bill{}, ErrNotFound
	}
	if patch.Total != nil {
		b.Total = *patch.Total
	}
	if patch.Paid != nil {
		b.Paid = *patch.Paid
	}
	if patch.Remaining != nil {
		b.Remaining = *patch.Remaining
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.GuestCount != nil {
		b.GuestCount = *patch.GuestCount
	}
	if patch.IsActive != nil {
		b.IsActive = *patch.IsActive
	}
	s.bills[id] = b
	return b, nil
}

// --- Bill items ---

func (s *MemStore) CreateBillItem(_ context.Context, arg CreateBillItemParams) (BillItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := BillItem{
		ID:           uuid.New(),
		BillID:       arg.BillID,
		Name:         arg.Name,
		Price:        arg.Price,
		Quantity:     arg.Quantity,
		PaidQuantity: arg.PaidQuantity,
	}
	s.items[it.ID] = it
	s.itemOrder = append(s.itemOrder, it.ID)
	return it, nil
}

func (s *MemStore) GetBillItem(_ context.Context, id uuid.UUID) (BillItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return BillItem{}, ErrNotFound
	}
	return it, nil
}

func (s *MemStore) ItemsByBill(_ context.Context, billID uuid.UUID) ([]BillItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []BillItem{}
	for _, id := range s.itemOrder {
		if it := s.items[id]; it.BillID == billID {
			result = append(result, it)
		}
	}
	return result, nil
}

func (s *MemStore) UpdateBillItem(_ context.Context, id uuid.UUID, patch BillItemPatch) (BillItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return BillItem{}, ErrNotFound
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Price != nil {
		it.Price = *patch.Price
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.PaidQuantity != nil {
		it.PaidQuantity = *patch.PaidQuantity
	}
	s.items[id] = it
	return it, nil
}

// --- Payments ---

func (s *MemStore) CreatePayment(_ context.Context, arg CreatePaymentParams) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Payment{
		ID:            uuid.New(),
		BillID:        arg.BillID,
		Amount:        arg.Amount,
		Tip:           arg.Tip,
		Items:         append([]ItemAllocation(nil), arg.Items...),
		PaymentMethod: arg.PaymentMethod,
		Status:        arg.Status,
		ProcessedAt:   time.Now(),
	}
	s.payments[p.ID] = p
	s.paymentOrder = append(s.paymentOrder, p.ID)
	return p, nil
}

func (s *MemStore) PaymentsByBill(_ context.Context, billID uuid.UUID) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Payment{}
	for _, id := range s.paymentOrder {
		if p := s.payments[id]; p.BillID == billID {
			result = append(result, p)
		}
	}
	return result, nil
}
