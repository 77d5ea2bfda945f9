package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/splitbill-app/api/internal/store"
)

// DashboardStore defines the store methods needed to project the dashboard.
type DashboardStore interface {
	ListTables(ctx context.Context) ([]store.Table, error)
	ListActiveBills(ctx context.Context) ([]store.Bill, error)
	ItemsByBill(ctx context.Context, billID uuid.UUID) ([]store.BillItem, error)
}

// DashboardTable is one read-model row: a table joined to its active bill
// (if any) and that bill's items.
type DashboardTable struct {
	Table      store.Table
	Bill       *store.Bill
	Items      []store.BillItem
	GuestCount int
	StartTime  *time.Time
}

// Dashboard builds the per-table read model.
type Dashboard struct {
	store DashboardStore
}

// NewDashboard creates a new dashboard service.
func NewDashboard(st DashboardStore) *Dashboard {
	return &Dashboard{store: st}
}

// Tables returns one row per table, sorted ascending by table number
// regardless of store iteration order. Equal numbers (same number in two
// restaurants) keep creation order; restaurant is deliberately not part of
// the sort key.
func (d *Dashboard) Tables(ctx context.Context) ([]DashboardTable, error) {
	tables, err := d.store.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	bills, err := d.store.ListActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	// Active bills arrive in creation order, so the oldest open bill per
	// table wins if a stale second one exists.
	billByTable := make(map[uuid.UUID]store.Bill, len(bills))
	for _, b := range bills {
		if _, ok := billByTable[b.TableID]; !ok {
			billByTable[b.TableID] = b
		}
	}

	result := make([]DashboardTable, 0, len(tables))
	for _, t := range tables {
		row := DashboardTable{Table: t, Items: []store.BillItem{}}

		if bill, ok := billByTable[t.ID]; ok {
			items, err := d.store.ItemsByBill(ctx, bill.ID)
			if err != nil {
				return nil, err
			}
			row.Bill = &bill
			row.Items = items
			row.GuestCount = bill.GuestCount
			row.StartTime = &bill.StartTime
		}

		result = append(result, row)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Table.Number < result[j].Table.Number
	})
	return result, nil
}
