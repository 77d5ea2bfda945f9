package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/splitbill-app/api/internal/store"
)

// BillStore defines the store methods needed by bill and bill-item
// handlers. Satisfied by store.Store.
type BillStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (store.Table, error)
	CreateBill(ctx context.Context, arg store.CreateBillParams) (store.Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (store.Bill, error)
	ActiveBillByTable(ctx context.Context, tableID uuid.UUID) (store.Bill, error)
	UpdateBill(ctx context.Context, id uuid.UUID, patch store.BillPatch) (store.Bill, error)
	CreateBillItem(ctx context.Context, arg store.CreateBillItemParams) (store.BillItem, error)
	GetBillItem(ctx context.Context, id uuid.UUID) (store.BillItem, error)
	ItemsByBill(ctx context.Context, billID uuid.UUID) ([]store.BillItem, error)
	UpdateBillItem(ctx context.Context, id uuid.UUID, patch store.BillItemPatch) (store.BillItem, error)
}

// BillHandler handles bill and bill-item endpoints.
type BillHandler struct {
	store BillStore
	hub   Broadcaster
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(st BillStore, hub Broadcaster) *BillHandler {
	return &BillHandler{store: st, hub: hub}
}

// RegisterRoutes registers bill endpoints on the given Chi router.
// Expected to be mounted at /api.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bills/table/{tableID}", h.GetByTable)
	r.Post("/bills", h.Create)
	r.Get("/bills/{id}", h.Get)
	r.Patch("/bills/{id}", h.Update)
	r.Get("/bills/{id}/items", h.ListItems)
	r.Post("/bills/{id}/items", h.CreateItem)
	r.Patch("/bill-items/{id}", h.UpdateItem)
}

// --- Request / Response types ---

type createBillRequest struct {
	TableID    string  `json:"table_id"`
	Total      string  `json:"total"`
	Paid       *string `json:"paid"`
	Remaining  string  `json:"remaining"`
	Status     *string `json:"status"`
	GuestCount *int    `json:"guest_count"`
	IsActive   *bool   `json:"is_active"`
}

// patchBillRequest enumerates the mutable bill fields; anything else in the
// body is ignored.
type patchBillRequest struct {
	Total      *string `json:"total"`
	Paid       *string `json:"paid"`
	Remaining  *string `json:"remaining"`
	Status     *string `json:"status"`
	GuestCount *int    `json:"guest_count"`
	IsActive   *bool   `json:"is_active"`
}

type createBillItemRequest struct {
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	Quantity     *string `json:"quantity"`
	PaidQuantity *string `json:"paid_quantity"`
}

type patchBillItemRequest struct {
	Name         *string `json:"name"`
	Price        *string `json:"price"`
	Quantity     *string `json:"quantity"`
	PaidQuantity *string `json:"paid_quantity"`
}

type billResponse struct {
	ID         uuid.UUID `json:"id"`
	TableID    uuid.UUID `json:"table_id"`
	Total      string    `json:"total"`
	Paid       string    `json:"paid"`
	Remaining  string    `json:"remaining"`
	Status     string    `json:"status"`
	GuestCount int       `json:"guest_count"`
	IsActive   bool      `json:"is_active"`
	StartTime  time.Time `json:"start_time"`
}

type billItemResponse struct {
	ID           uuid.UUID `json:"id"`
	BillID       uuid.UUID `json:"bill_id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Quantity     string    `json:"quantity"`
	PaidQuantity string    `json:"paid_quantity"`
}

type billWithItemsResponse struct {
	billResponse
	Items []billItemResponse `json:"items"`
	Table tableResponse      `json:"table"`
}

func toBillResponse(b store.Bill) billResponse {
	return billResponse{
		ID:         b.ID,
		TableID:    b.TableID,
		Total:      b.Total.StringFixed(2),
		Paid:       b.Paid.StringFixed(2),
		Remaining:  b.Remaining.StringFixed(2),
		Status:     string(b.Status),
		GuestCount: b.GuestCount,
		IsActive:   b.IsActive,
		StartTime:  b.StartTime,
	}
}

func toBillItemResponse(it store.BillItem) billItemResponse {
	return billItemResponse{
		ID:           it.ID,
		BillID:       it.BillID,
		Name:         it.Name,
		Price:        it.Price.StringFixed(2),
		Quantity:     it.Quantity.StringFixed(2),
		PaidQuantity: it.PaidQuantity.StringFixed(2),
	}
}

func isValidBillStatus(s store.BillStatus) bool {
	switch s {
	case store.BillStatusUnpaid, store.BillStatusPartial, store.BillStatusPaid:
		return true
	}
	return false
}

// billWithItems joins a bill to its items and owning table. A dangling
// table reference reads as an absent bill.
func (h *BillHandler) billWithItems(ctx context.Context, bill store.Bill) (billWithItemsResponse, error) {
	items, err := h.store.ItemsByBill(ctx, bill.ID)
	if err != nil {
		return billWithItemsResponse{}, err
	}
	table, err := h.store.GetTable(ctx, bill.TableID)
	if err != nil {
		return billWithItemsResponse{}, err
	}

	resp := billWithItemsResponse{
		billResponse: toBillResponse(bill),
		Items:        make([]billItemResponse, len(items)),
		Table:        toTableResponse(table),
	}
	for i, it := range items {
		resp.Items[i] = toBillItemResponse(it)
	}
	return resp, nil
}

// --- Handlers ---

// GetByTable handles GET /api/bills/table/{tableID}.
func (h *BillHandler) GetByTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "tableID"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	bill, err := h.store.ActiveBillByTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "No active bill found for this table")
			return
		}
		log.Printf("ERROR: get bill by table: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill")
		return
	}

	resp, err := h.billWithItems(r.Context(), bill)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "No active bill found for this table")
			return
		}
		log.Printf("ERROR: assemble bill: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/bills/{id}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}

	bill, err := h.store.GetBill(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Bill not found")
			return
		}
		log.Printf("ERROR: get bill: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill")
		return
	}

	resp, err := h.billWithItems(r.Context(), bill)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Bill not found")
			return
		}
		log.Printf("ERROR: assemble bill: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/bills.
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill data")
		return
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid table_id")
		return
	}
	total, err := decimal.NewFromString(req.Total)
	if err != nil || total.Sign() < 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid total")
		return
	}
	paid := decimal.Zero
	if req.Paid != nil {
		if paid, err = decimal.NewFromString(*req.Paid); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid paid")
			return
		}
	}
	remaining, err := decimal.NewFromString(req.Remaining)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid remaining")
		return
	}

	status := store.BillStatusUnpaid
	if req.Status != nil {
		status = store.BillStatus(*req.Status)
		if !isValidBillStatus(status) {
			writeDetail(w, http.StatusBadRequest, "Invalid status")
			return
		}
	}
	guestCount := 1
	if req.GuestCount != nil {
		guestCount = *req.GuestCount
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	bill, err := h.store.CreateBill(r.Context(), store.CreateBillParams{
		TableID:    tableID,
		Total:      total,
		Paid:       paid,
		Remaining:  remaining,
		Status:     status,
		GuestCount: guestCount,
		IsActive:   isActive,
	})
	if err != nil {
		log.Printf("ERROR: create bill: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create bill")
		return
	}
	writeJSON(w, http.StatusCreated, toBillResponse(bill))
}

// Update handles PATCH /api/bills/{id}.
func (h *BillHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}

	var req patchBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill data")
		return
	}

	var patch store.BillPatch
	if req.Total != nil {
		d, err := decimal.NewFromString(*req.Total)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid total")
			return
		}
		patch.Total = &d
	}
	if req.Paid != nil {
		d, err := decimal.NewFromString(*req.Paid)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid paid")
			return
		}
		patch.Paid = &d
	}
	if req.Remaining != nil {
		d, err := decimal.NewFromString(*req.Remaining)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid remaining")
			return
		}
		patch.Remaining = &d
	}
	if req.Status != nil {
		status := store.BillStatus(*req.Status)
		if !isValidBillStatus(status) {
			writeDetail(w, http.StatusBadRequest, "Invalid status")
			return
		}
		patch.Status = &status
	}
	patch.GuestCount = req.GuestCount
	patch.IsActive = req.IsActive

	bill, err := h.store.UpdateBill(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Bill not found")
			return
		}
		log.Printf("ERROR: update bill: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to update bill")
		return
	}

	h.broadcastBill(r.Context(), "bill.updated", bill)
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// ListItems handles GET /api/bills/{id}/items.
func (h *BillHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}

	items, err := h.store.ItemsByBill(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list bill items: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch bill items")
		return
	}

	resp := make([]billItemResponse, len(items))
	for i, it := range items {
		resp[i] = toBillItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateItem handles POST /api/bills/{id}/items. The owning bill id comes
// from the path, never the body.
func (h *BillHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}

	var req createBillItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill item data")
		return
	}
	if req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid price")
		return
	}
	quantity := decimal.NewFromInt(1)
	if req.Quantity != nil {
		if quantity, err = decimal.NewFromString(*req.Quantity); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid quantity")
			return
		}
	}
	paidQuantity := decimal.Zero
	if req.PaidQuantity != nil {
		if paidQuantity, err = decimal.NewFromString(*req.PaidQuantity); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid paid_quantity")
			return
		}
	}

	item, err := h.store.CreateBillItem(r.Context(), store.CreateBillItemParams{
		BillID:       billID,
		Name:         req.Name,
		Price:        price,
		Quantity:     quantity,
		PaidQuantity: paidQuantity,
	})
	if err != nil {
		log.Printf("ERROR: create bill item: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create bill item")
		return
	}
	writeJSON(w, http.StatusCreated, toBillItemResponse(item))
}

// UpdateItem handles PATCH /api/bill-items/{id}.
func (h *BillHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill item ID")
		return
	}

	var req patchBillItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill item data")
		return
	}

	var patch store.BillItemPatch
	patch.Name = req.Name
	if req.Price != nil {
		d, err := decimal.NewFromString(*req.Price)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid price")
			return
		}
		patch.Price = &d
	}
	if req.Quantity != nil {
		d, err := decimal.NewFromString(*req.Quantity)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid quantity")
			return
		}
		patch.Quantity = &d
	}
	if req.PaidQuantity != nil {
		d, err := decimal.NewFromString(*req.PaidQuantity)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid paid_quantity")
			return
		}
		patch.PaidQuantity = &d
	}

	item, err := h.store.UpdateBillItem(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Bill item not found")
			return
		}
		log.Printf("ERROR: update bill item: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to update bill item")
		return
	}

	if bill, err := h.store.GetBill(r.Context(), item.BillID); err == nil {
		h.broadcastBill(r.Context(), "item.updated", bill)
	}
	writeJSON(w, http.StatusOK, toBillItemResponse(item))
}

// broadcastBill resolves the bill's restaurant and pushes the bill state to
// its subscribers. Lookup failures only cost the notification.
func (h *BillHandler) broadcastBill(ctx context.Context, eventType string, bill store.Bill) {
	table, err := h.store.GetTable(ctx, bill.TableID)
	if err != nil {
		return
	}
	h.hub.BroadcastEvent(table.RestaurantName, eventType, toBillResponse(bill))
}
