package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("store: bad sample decimal " + s)
	}
	return d
}

// SeedSample loads the bella-vista demo dataset. It works against the Store
// interface so both cmd/server (memory backend) and cmd/seed (Postgres) can
// use it. Table 7 carries the partially paid showcase bill.
func SeedSample(ctx context.Context, s Store) error {
	const restaurant = "bella-vista"

	table7, err := s.CreateTable(ctx, CreateTableParams{
		Number:         7,
		RestaurantName: restaurant,
		QRCode:         "https://splitbill.app/t/7/bella-vista",
		IsActive:       true,
	})
	if err != nil {
		return err
	}

	bill7, err := s.CreateBill(ctx, CreateBillParams{
		TableID:    table7.ID,
		Total:      dec("89.50"),
		Paid:       dec("32.75"),
		Remaining:  dec("56.75"),
		Status:     BillStatusPartial,
		GuestCount: 4,
		IsActive:   true,
	})
	if err != nil {
		return err
	}

	items := []CreateBillItemParams{
		{BillID: bill7.ID, Name: "Caesar Salad", Price: dec("18.50"), Quantity: dec("1"), PaidQuantity: dec("0")},
		{BillID: bill7.ID, Name: "Grilled Salmon", Price: dec("32.00"), Quantity: dec("1"), PaidQuantity: dec("0")},
		{BillID: bill7.ID, Name: "Wine Bottle (Shared)", Price: dec("45.00"), Quantity: dec("1"), PaidQuantity: dec("0.5")},
		{BillID: bill7.ID, Name: "Dessert", Price: dec("12.00"), Quantity: dec("1"), PaidQuantity: dec("0")},
	}
	for _, it := range items {
		if _, err := s.CreateBillItem(ctx, it); err != nil {
			return err
		}
	}

	// Remaining dashboard tables. 3, 5 and 12 get bills in different
	// settlement states so the dashboard has something to show.
	for n := 3; n <= 12; n++ {
		if n == 7 {
			continue
		}
		tbl, err := s.CreateTable(ctx, CreateTableParams{
			Number:         n,
			RestaurantName: restaurant,
			QRCode:         fmt.Sprintf("https://splitbill.app/t/%d/bella-vista", n),
			IsActive:       true,
		})
		if err != nil {
			return err
		}

		var bill CreateBillParams
		switch n {
		case 3:
			bill = CreateBillParams{
				TableID: tbl.ID, Total: dec("65.25"), Paid: dec("65.25"), Remaining: dec("0"),
				Status: BillStatusPaid, GuestCount: 2, IsActive: true,
			}
		case 5:
			bill = CreateBillParams{
				TableID: tbl.ID, Total: dec("78.40"), Paid: dec("45.60"), Remaining: dec("32.80"),
				Status: BillStatusPartial, GuestCount: 3, IsActive: true,
			}
		case 12:
			bill = CreateBillParams{
				TableID: tbl.ID, Total: dec("156.75"), Paid: dec("0"), Remaining: dec("156.75"),
				Status: BillStatusUnpaid, GuestCount: 6, IsActive: true,
			}
		default:
			continue
		}
		if _, err := s.CreateBill(ctx, bill); err != nil {
			return err
		}
	}
	return nil
}
