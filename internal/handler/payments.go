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
	"github.com/splitbill-app/api/internal/service"
	"github.com/splitbill-app/api/internal/store"
)

// PaymentReadStore defines the store methods the payment handler needs
// beyond the reconciler itself.
type PaymentReadStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (store.Table, error)
	PaymentsByBill(ctx context.Context, billID uuid.UUID) ([]store.Payment, error)
}

// PaymentHandler handles payment endpoints. Creation goes through the
// payment service so the bill reconciliation stays atomic per bill.
type PaymentHandler struct {
	payments *service.Payments
	store    PaymentReadStore
	hub      Broadcaster
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.Payments, st PaymentReadStore, hub Broadcaster) *PaymentHandler {
	return &PaymentHandler{payments: payments, store: st, hub: hub}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /api.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/payments", h.Create)
	r.Get("/payments/bill/{id}", h.ListByBill)
}

// --- Request / Response types ---

// allocationRequest is one {itemId, quantity} pair. Entries missing either
// field are skipped rather than rejected; that matches how clients submit
// partially filled split selections.
type allocationRequest struct {
	ItemID   *uuid.UUID `json:"itemId"`
	Quantity *string    `json:"quantity"`
}

type createPaymentRequest struct {
	BillID        string              `json:"bill_id"`
	Amount        string              `json:"amount"`
	Tip           *string             `json:"tip"`
	Items         []allocationRequest `json:"items"`
	PaymentMethod string              `json:"payment_method"`
	Status        string              `json:"status"`
}

type allocationResponse struct {
	ItemID   uuid.UUID `json:"itemId"`
	Quantity string    `json:"quantity"`
}

type paymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	BillID        uuid.UUID            `json:"bill_id"`
	Amount        string               `json:"amount"`
	Tip           string               `json:"tip"`
	Items         []allocationResponse `json:"items"`
	PaymentMethod string               `json:"payment_method"`
	Status        string               `json:"status"`
	ProcessedAt   time.Time            `json:"processed_at"`
}

func toPaymentResponse(p store.Payment) paymentResponse {
	resp := paymentResponse{
		ID:            p.ID,
		BillID:        p.BillID,
		Amount:        p.Amount.StringFixed(2),
		Tip:           p.Tip.StringFixed(2),
		Items:         make([]allocationResponse, len(p.Items)),
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		ProcessedAt:   p.ProcessedAt,
	}
	for i, a := range p.Items {
		resp.Items[i] = allocationResponse{ItemID: a.ItemID, Quantity: a.Quantity.String()}
	}
	return resp
}

// --- Handlers ---

// Create handles POST /api/payments. Applies the payment to the referenced
// bill and its allocated items; a payment against an unknown bill is a 404
// and leaves no record.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid payment data")
		return
	}

	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill_id")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	tip := decimal.Zero
	if req.Tip != nil {
		if tip, err = decimal.NewFromString(*req.Tip); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid tip")
			return
		}
	}

	allocations := make([]store.ItemAllocation, 0, len(req.Items))
	for _, a := range req.Items {
		if a.ItemID == nil || a.Quantity == nil {
			continue
		}
		qty, err := decimal.NewFromString(*a.Quantity)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid allocation quantity")
			return
		}
		allocations = append(allocations, store.ItemAllocation{ItemID: *a.ItemID, Quantity: qty})
	}

	result, err := h.payments.Apply(r.Context(), service.ApplyPaymentInput{
		BillID:        billID,
		Amount:        amount,
		Tip:           tip,
		Items:         allocations,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeDetail(w, http.StatusNotFound, "Bill not found")
		case errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrNegativeTip):
			writeDetail(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("ERROR: apply payment: %v", err)
			writeDetail(w, http.StatusInternalServerError, "Failed to process payment")
		}
		return
	}

	if table, err := h.store.GetTable(r.Context(), result.Bill.TableID); err == nil {
		h.hub.BroadcastEvent(table.RestaurantName, "payment.created", toPaymentResponse(result.Payment))
		h.hub.BroadcastEvent(table.RestaurantName, "bill.updated", toBillResponse(result.Bill))
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(result.Payment))
}

// ListByBill handles GET /api/payments/bill/{id}. An unknown bill id yields
// an empty list, not a 404.
func (h *PaymentHandler) ListByBill(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}

	payments, err := h.store.PaymentsByBill(r.Context(), billID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
