package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/splitbill-app/api/internal/store"
)

func TestListTables(t *testing.T) {
	st := store.NewMemStore()
	createTable(t, st, 7, "bella-vista")
	createTable(t, st, 3, "bella-vista")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/tables", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeList(t, rr)
	if len(resp) != 2 {
		t.Fatalf("tables: got %d, want 2", len(resp))
	}
	if resp[0]["number"].(float64) != 7 {
		t.Errorf("first table number: got %v, want 7", resp[0]["number"])
	}
}

func TestCreateTable(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "POST", "/api/tables", map[string]interface{}{
		"number":          9,
		"restaurant_name": "bella-vista",
		"qr_code":         "https://splitbill.app/t/9/bella-vista",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeMap(t, rr)
	if resp["number"].(float64) != 9 {
		t.Errorf("number: got %v, want 9", resp["number"])
	}
	if resp["is_active"] != true {
		t.Error("is_active should default to true")
	}
	if _, err := uuid.Parse(resp["id"].(string)); err != nil {
		t.Errorf("id is not a uuid: %v", resp["id"])
	}
}

func TestCreateTableValidation(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing number", map[string]interface{}{"restaurant_name": "bella-vista", "qr_code": "x"}},
		{"missing restaurant", map[string]interface{}{"number": 2, "qr_code": "x"}},
		{"missing qr_code", map[string]interface{}{"number": 2, "restaurant_name": "bella-vista"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", "/api/tables", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetTable(t *testing.T) {
	st := store.NewMemStore()
	tbl := createTable(t, st, 7, "bella-vista")
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/tables/"+tbl.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeMap(t, rr)
	if resp["restaurant_name"] != "bella-vista" {
		t.Errorf("restaurant_name: got %v", resp["restaurant_name"])
	}
}

func TestGetTableNotFound(t *testing.T) {
	st := store.NewMemStore()
	router := newAPIRouter(st)

	rr := doRequest(t, router, "GET", "/api/tables/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	resp := decodeMap(t, rr)
	if resp["detail"] != "Table not found" {
		t.Errorf("detail: got %v", resp["detail"])
	}
}
