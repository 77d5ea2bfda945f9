package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/splitbill-app/api/internal/service"
	"github.com/splitbill-app/api/internal/store"
)

func seedTable(t *testing.T, s *store.MemStore, number int) store.Table {
	t.Helper()
	tbl, err := s.CreateTable(context.Background(), store.CreateTableParams{
		Number: number, RestaurantName: "bella-vista",
		QRCode: "https://splitbill.app/t/x", IsActive: true,
	})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return tbl
}

func TestDashboardSortedByNumber(t *testing.T) {
	s := store.NewMemStore()
	// Insert out of order on purpose
	seedTable(t, s, 12)
	seedTable(t, s, 3)
	seedTable(t, s, 7)

	rows, err := service.NewDashboard(s).Tables(context.Background())
	if err != nil {
		t.Fatalf("dashboard tables: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	for i, want := range []int{3, 7, 12} {
		if rows[i].Table.Number != want {
			t.Errorf("row %d: number %d, want %d", i, rows[i].Table.Number, want)
		}
	}
}

func TestDashboardTableWithoutBill(t *testing.T) {
	s := store.NewMemStore()
	seedTable(t, s, 4)

	rows, err := service.NewDashboard(s).Tables(context.Background())
	if err != nil {
		t.Fatalf("dashboard tables: %v", err)
	}
	row := rows[0]
	if row.Bill != nil {
		t.Error("bill should be absent")
	}
	if row.Items == nil || len(row.Items) != 0 {
		t.Errorf("items: got %v, want empty slice", row.Items)
	}
	if row.GuestCount != 0 {
		t.Errorf("guest_count: got %d, want 0", row.GuestCount)
	}
	if row.StartTime != nil {
		t.Error("start_time should be absent")
	}
}

func TestDashboardJoinsActiveBillAndItems(t *testing.T) {
	s := store.NewMemStore()
	ctx := context.Background()
	tbl := seedTable(t, s, 5)

	bill, err := s.CreateBill(ctx, store.CreateBillParams{
		TableID: tbl.ID, Total: decimal.NewFromInt(78), Paid: decimal.Zero,
		Remaining: decimal.NewFromInt(78), Status: store.BillStatusUnpaid,
		GuestCount: 3, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	// A closed bill on the same table must not shadow the active one.
	if _, err := s.CreateBill(ctx, store.CreateBillParams{
		TableID: tbl.ID, Total: decimal.NewFromInt(10), Paid: decimal.NewFromInt(10),
		Remaining: decimal.Zero, Status: store.BillStatusPaid,
		GuestCount: 1, IsActive: false,
	}); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if _, err := s.CreateBillItem(ctx, store.CreateBillItemParams{
		BillID: bill.ID, Name: "Pasta",
		Price: decimal.NewFromInt(26), Quantity: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	rows, err := service.NewDashboard(s).Tables(context.Background())
	if err != nil {
		t.Fatalf("dashboard tables: %v", err)
	}
	row := rows[0]
	if row.Bill == nil || row.Bill.ID != bill.ID {
		t.Fatalf("bill: got %+v, want active bill %s", row.Bill, bill.ID)
	}
	if len(row.Items) != 1 || row.Items[0].Name != "Pasta" {
		t.Errorf("items: got %+v", row.Items)
	}
	if row.GuestCount != 3 {
		t.Errorf("guest_count: got %d, want 3", row.GuestCount)
	}
	if row.StartTime == nil {
		t.Error("start_time missing")
	}
}
