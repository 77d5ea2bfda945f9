package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/splitbill-app/api/internal/store"
)

func TestGetBillWithItems(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 7, "bella-vista")
	bill := createBill(t, st, tbl.ID, "89.50")
	createItem(t, st, bill.ID, "Caesar Salad", "18.50")
	createItem(t, st, bill.ID, "Dessert", "12.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/bills/"+bill.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["total"] != "89.50" {
		t.Errorf("total: got %v, want 89.50", resp["total"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	table := resp["table"].(map[string]interface{})
	if table["number"].(float64) != 7 {
		t.Errorf("table number: got %v, want 7", table["number"])
	}
}

func TestGetBillNotFound(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/bills/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if decodeMap(t, rr)["detail"] != "Bill not found" {
		t.Error("wrong detail message")
	}
}

func TestGetBillByTable(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 5, "bella-vista")
	bill := createBill(t, st, tbl.ID, "78.40")
	createItem(t, st, bill.ID, "Pasta", "26.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/bills/table/"+tbl.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeMap(t, rr)
	if resp["id"] != bill.ID.String() {
		t.Errorf("bill id: got %v, want %s", resp["id"], bill.ID)
	}
}

func TestGetBillByTableNoActiveBill(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 5, "bella-vista")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/bills/table/"+tbl.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if decodeMap(t, rr)["detail"] != "No active bill found for this table" {
		t.Error("wrong detail message")
	}
}

func TestCreateBill(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 2, "bella-vista")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "POST", "/api/bills", map[string]interface{}{
		"table_id":    tbl.ID.String(),
		"total":       "120.00",
		"remaining":   "120.00",
		"guest_count": 5,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["status"] != "unpaid" {
		t.Errorf("status should default to unpaid, got %v", resp["status"])
	}
	if resp["paid"] != "0.00" {
		t.Errorf("paid should default to 0.00, got %v", resp["paid"])
	}
	if resp["guest_count"].(float64) != 5 {
		t.Errorf("guest_count: got %v, want 5", resp["guest_count"])
	}
}

func TestCreateBillValidation(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "POST", "/api/bills", map[string]interface{}{
		"table_id":  "not-a-uuid",
		"total":     "10.00",
		"remaining": "10.00",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad table_id: got %d, want 400", rr.Code)
	}

	rr = doRequest(t, router, "POST", "/api/bills", map[string]interface{}{
		"table_id":  uuid.New().String(),
		"total":     "ten dollars",
		"remaining": "10.00",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad total: got %d, want 400", rr.Code)
	}
}

func TestPatchBill(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 2, "bella-vista")
	bill := createBill(t, st, tbl.ID, "50.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "PATCH", "/api/bills/"+bill.ID.String(), map[string]interface{}{
		"paid":      "20.00",
		"remaining": "30.00",
		"status":    "partial",
		"bogus":     "ignored", // unknown keys are dropped, not rejected
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["paid"] != "20.00" || resp["remaining"] != "30.00" || resp["status"] != "partial" {
		t.Errorf("patch not applied: %v", resp)
	}
	if resp["total"] != "50.00" {
		t.Errorf("total changed by patch: got %v", resp["total"])
	}
}

func TestPatchBillNotFound(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "PATCH", "/api/bills/"+uuid.New().String(), map[string]interface{}{
		"paid": "5.00",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestPatchBillRejectsBadStatus(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 2, "bella-vista")
	bill := createBill(t, st, tbl.ID, "50.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "PATCH", "/api/bills/"+bill.ID.String(), map[string]interface{}{
		"status": "overdue",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestListBillItems(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 7, "bella-vista")
	bill := createBill(t, st, tbl.ID, "30.50")
	createItem(t, st, bill.ID, "Caesar Salad", "18.50")
	createItem(t, st, bill.ID, "Dessert", "12.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/bills/"+bill.ID.String()+"/items", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeList(t, rr)
	if len(resp) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp))
	}
	if resp[0]["name"] != "Caesar Salad" {
		t.Errorf("first item: got %v", resp[0]["name"])
	}
}

func TestCreateBillItemInjectsBillID(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 7, "bella-vista")
	bill := createBill(t, st, tbl.ID, "30.50")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "POST", "/api/bills/"+bill.ID.String()+"/items", map[string]interface{}{
		"name":    "Espresso",
		"price":   "3.50",
		"bill_id": uuid.New().String(), // body bill_id is ignored; the path wins
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["bill_id"] != bill.ID.String() {
		t.Errorf("bill_id: got %v, want %s", resp["bill_id"], bill.ID)
	}
	if resp["quantity"] != "1.00" {
		t.Errorf("quantity should default to 1.00, got %v", resp["quantity"])
	}
	if resp["paid_quantity"] != "0.00" {
		t.Errorf("paid_quantity should default to 0.00, got %v", resp["paid_quantity"])
	}
}

func TestPatchBillItem(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 7, "bella-vista")
	bill := createBill(t, st, tbl.ID, "30.50")
	item := createItem(t, st, bill.ID, "Wine Bottle (Shared)", "45.00")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "PATCH", "/api/bill-items/"+item.ID.String(), map[string]interface{}{
		"paid_quantity": "0.50",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["paid_quantity"] != "0.50" {
		t.Errorf("paid_quantity: got %v, want 0.50", resp["paid_quantity"])
	}
	if resp["price"] != "45.00" {
		t.Errorf("price changed by patch: got %v", resp["price"])
	}

	got, err := st.GetBillItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.PaidQuantity.StringFixed(2) != "0.50" {
		t.Error("patch not persisted")
	}
}

func TestPatchBillItemNotFound(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "PATCH", "/api/bill-items/"+uuid.New().String(), map[string]interface{}{
		"paid_quantity": "1.00",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if decodeMap(t, rr)["detail"] != "Bill item not found" {
		t.Error("wrong detail message")
	}
}
