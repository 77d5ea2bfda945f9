package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/splitbill-app/api/internal/handler"
	"github.com/splitbill-app/api/internal/service"
	"github.com/splitbill-app/api/internal/store"
)

// newAPIRouter wires every handler against the given memory store, the way
// the real router does, minus middleware.
func newAPIRouter(st *store.MemStore) *chi.Mux {
	r := chi.NewRouter()
	hub := handler.NopBroadcaster{}
	payments := service.NewPayments(st)
	dashboard := service.NewDashboard(st)

	r.Route("/api", func(r chi.Router) {
		handler.NewTableHandler(st, hub).RegisterRoutes(r)
		handler.NewBillHandler(st, hub).RegisterRoutes(r)
		handler.NewPaymentHandler(payments, st, hub).RegisterRoutes(r)
		handler.NewDashboardHandler(dashboard, st).RegisterRoutes(r)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func createTable(t *testing.T, st *store.MemStore, number int, restaurant string) store.Table {
	t.Helper()
	tbl, err := st.CreateTable(context.Background(), store.CreateTableParams{
		Number:         number,
		RestaurantName: restaurant,
		QRCode:         "https://splitbill.app/t/x",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return tbl
}

func createBill(t *testing.T, st *store.MemStore, tableID uuid.UUID, total string) store.Bill {
	t.Helper()
	b, err := st.CreateBill(context.Background(), store.CreateBillParams{
		TableID:    tableID,
		Total:      mustDec(t, total),
		Paid:       decimal.Zero,
		Remaining:  mustDec(t, total),
		Status:     store.BillStatusUnpaid,
		GuestCount: 2,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return b
}

func createItem(t *testing.T, st *store.MemStore, billID uuid.UUID, name, price string) store.BillItem {
	t.Helper()
	it, err := st.CreateBillItem(context.Background(), store.CreateBillItemParams{
		BillID:   billID,
		Name:     name,
		Price:    mustDec(t, price),
		Quantity: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return it
}
