package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/splitbill-app/api/internal/service"
	"github.com/splitbill-app/api/internal/store"
)

// QRStore defines the store methods needed to resolve a QR scan to a bill.
type QRStore interface {
	TableByNumberAndRestaurant(ctx context.Context, number int, restaurant string) (store.Table, error)
	ActiveBillByTable(ctx context.Context, tableID uuid.UUID) (store.Bill, error)
	ItemsByBill(ctx context.Context, billID uuid.UUID) ([]store.BillItem, error)
}

// DashboardHandler handles the staff dashboard and QR scan endpoints.
type DashboardHandler struct {
	dashboard *service.Dashboard
	store     QRStore
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.Dashboard, st QRStore) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, store: st}
}

// RegisterRoutes registers dashboard endpoints on the given Chi router.
// Expected to be mounted at /api.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/tables", h.Tables)
	r.Get("/qr/{number}/{restaurant}", h.QRLookup)
}

// --- Response types ---

type dashboardTableResponse struct {
	ID             uuid.UUID          `json:"id"`
	Number         int                `json:"number"`
	RestaurantName string             `json:"restaurant_name"`
	Bill           *billResponse      `json:"bill"`
	Items          []billItemResponse `json:"items"`
	GuestCount     int                `json:"guest_count"`
	StartTime      *time.Time         `json:"start_time"`
}

func toDashboardTableResponse(row service.DashboardTable) dashboardTableResponse {
	resp := dashboardTableResponse{
		ID:             row.Table.ID,
		Number:         row.Table.Number,
		RestaurantName: row.Table.RestaurantName,
		Items:          make([]billItemResponse, len(row.Items)),
		GuestCount:     row.GuestCount,
		StartTime:      row.StartTime,
	}
	if row.Bill != nil {
		b := toBillResponse(*row.Bill)
		resp.Bill = &b
	}
	for i, it := range row.Items {
		resp.Items[i] = toBillItemResponse(it)
	}
	return resp
}

// --- Handlers ---

// Tables handles GET /api/dashboard/tables.
func (h *DashboardHandler) Tables(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dashboard.Tables(r.Context())
	if err != nil {
		log.Printf("ERROR: dashboard tables: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch dashboard data")
		return
	}

	resp := make([]dashboardTableResponse, len(rows))
	for i, row := range rows {
		resp[i] = toDashboardTableResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// QRLookup handles GET /api/qr/{number}/{restaurant}: the guest entry
// point, resolving a scanned table number to the table's active bill.
func (h *DashboardHandler) QRLookup(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid table number")
		return
	}
	restaurant := chi.URLParam(r, "restaurant")

	table, err := h.store.TableByNumberAndRestaurant(r.Context(), number, restaurant)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Table not found")
			return
		}
		log.Printf("ERROR: qr table lookup: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill via QR code")
		return
	}

	bill, err := h.store.ActiveBillByTable(r.Context(), table.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "No active bill for this table")
			return
		}
		log.Printf("ERROR: qr bill lookup: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill via QR code")
		return
	}

	items, err := h.store.ItemsByBill(r.Context(), bill.ID)
	if err != nil {
		log.Printf("ERROR: qr items lookup: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill via QR code")
		return
	}

	resp := billWithItemsResponse{
		billResponse: toBillResponse(bill),
		Items:        make([]billItemResponse, len(items)),
		Table:        toTableResponse(table),
	}
	for i, it := range items {
		resp.Items[i] = toBillItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}
