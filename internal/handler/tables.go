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
	"github.com/splitbill-app/api/internal/store"
)

// TableStore defines the store methods needed by table handlers.
// Satisfied by store.Store; narrow interface for testability.
type TableStore interface {
	CreateTable(ctx context.Context, arg store.CreateTableParams) (store.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (store.Table, error)
	ListTables(ctx context.Context) ([]store.Table, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	store TableStore
	hub   Broadcaster
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(st TableStore, hub Broadcaster) *TableHandler {
	return &TableHandler{store: st, hub: hub}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /api.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Post("/tables", h.Create)
	r.Get("/tables/{id}", h.Get)
}

// --- Request / Response types ---

type createTableRequest struct {
	Number         int    `json:"number"`
	RestaurantName string `json:"restaurant_name"`
	QRCode         string `json:"qr_code"`
	IsActive       *bool  `json:"is_active"`
}

type tableResponse struct {
	ID             uuid.UUID `json:"id"`
	Number         int       `json:"number"`
	RestaurantName string    `json:"restaurant_name"`
	QRCode         string    `json:"qr_code"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func toTableResponse(t store.Table) tableResponse {
	return tableResponse{
		ID:             t.ID,
		Number:         t.Number,
		RestaurantName: t.RestaurantName,
		QRCode:         t.QRCode,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /api/tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch tables")
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid table data")
		return
	}
	if req.Number <= 0 {
		writeDetail(w, http.StatusBadRequest, "number must be positive")
		return
	}
	if req.RestaurantName == "" {
		writeDetail(w, http.StatusBadRequest, "restaurant_name is required")
		return
	}
	if req.QRCode == "" {
		writeDetail(w, http.StatusBadRequest, "qr_code is required")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	table, err := h.store.CreateTable(r.Context(), store.CreateTableParams{
		Number:         req.Number,
		RestaurantName: req.RestaurantName,
		QRCode:         req.QRCode,
		IsActive:       isActive,
	})
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create table")
		return
	}

	h.hub.BroadcastEvent(table.RestaurantName, "table.created", toTableResponse(table))
	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// Get handles GET /api/tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	table, err := h.store.GetTable(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Table not found")
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to fetch table")
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}
