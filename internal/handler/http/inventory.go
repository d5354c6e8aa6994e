package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/inventory-es/internal/command"
	"github.com/utafrali/inventory-es/internal/query"
	apperrors "github.com/utafrali/inventory-es/pkg/errors"
	"github.com/utafrali/inventory-es/pkg/httputil"
	"github.com/utafrali/inventory-es/pkg/validator"
)

const maxRequestBody = 1 << 20 // 1MB, prevents DoS via oversized payloads

// InventoryHandler serves the inventory HTTP API.
type InventoryHandler struct {
	commands              *command.Handlers
	queries               *query.Handlers
	logger                *slog.Logger
	defaultReservationTTL time.Duration
}

// NewInventoryHandler returns a handler backed by commands and queries.
// defaultReservationTTLMinutes is used for Reserve requests that omit
// ttl_minutes.
func NewInventoryHandler(commands *command.Handlers, queries *query.Handlers, logger *slog.Logger, defaultReservationTTLMinutes int) *InventoryHandler {
	return &InventoryHandler{
		commands:              commands,
		queries:               queries,
		logger:                logger,
		defaultReservationTTL: time.Duration(defaultReservationTTLMinutes) * time.Minute,
	}
}

// --- Request DTOs ---

// AddStockRequest is the JSON request body for POST /api/v1/inventory/stock.
type AddStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	StoreID   string `json:"store_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required"`
}

// ReserveRequest is the JSON request body for POST /api/v1/inventory/reserve.
type ReserveRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	StoreID    string `json:"store_id" validate:"required,uuid"`
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	TTLMinutes int    `json:"ttl_minutes" validate:"omitempty,gte=1,lte=1440"`
}

// CommitRequest is the JSON request body for POST /api/v1/inventory/commit.
type CommitRequest struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	StoreID       string `json:"store_id" validate:"required,uuid"`
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
	OrderID       string `json:"order_id" validate:"required,uuid"`
}

// ReleaseRequest is the JSON request body for POST /api/v1/inventory/release.
type ReleaseRequest struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	StoreID       string `json:"store_id" validate:"required,uuid"`
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
	Reason        string `json:"reason" validate:"required"`
}

// CheckAvailabilityRequest is the JSON request body for POST
// /api/v1/inventory/availability.
type CheckAvailabilityRequest struct {
	ProductID        string `json:"product_id" validate:"required,uuid"`
	StoreID          string `json:"store_id" validate:"required,uuid"`
	RequiredQuantity int    `json:"required_quantity" validate:"required,gt=0"`
}

// --- Handlers ---

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}

	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}

	return true
}

// AddStock handles POST /api/v1/inventory/stock.
func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	productID, ok := httputil.ParseUUID(w, req.ProductID)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, req.StoreID)
	if !ok {
		return
	}

	if err := h.commands.AddStock.Handle(r.Context(), productID, storeID, req.Quantity, req.Reason); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{"message": "stock added"}})
}

// Reserve handles POST /api/v1/inventory/reserve.
func (h *InventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	productID, ok := httputil.ParseUUID(w, req.ProductID)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, req.StoreID)
	if !ok {
		return
	}
	customerID, ok := httputil.ParseUUID(w, req.CustomerID)
	if !ok {
		return
	}

	ttl := h.defaultReservationTTL
	if req.TTLMinutes != 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	reservationID, err := h.commands.Reserve.Handle(r.Context(), productID, storeID, customerID, req.Quantity, ttl)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{"reservation_id": reservationID.String()}})
}

// Commit handles POST /api/v1/inventory/commit.
func (h *InventoryHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	productID, ok := httputil.ParseUUID(w, req.ProductID)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, req.StoreID)
	if !ok {
		return
	}
	reservationID, ok := httputil.ParseUUID(w, req.ReservationID)
	if !ok {
		return
	}
	orderID, ok := httputil.ParseUUID(w, req.OrderID)
	if !ok {
		return
	}

	if err := h.commands.Commit.Handle(r.Context(), productID, storeID, reservationID, orderID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"reservation_id": req.ReservationID, "status": "committed"}})
}

// Release handles POST /api/v1/inventory/release.
func (h *InventoryHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	productID, ok := httputil.ParseUUID(w, req.ProductID)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, req.StoreID)
	if !ok {
		return
	}
	reservationID, ok := httputil.ParseUUID(w, req.ReservationID)
	if !ok {
		return
	}

	if err := h.commands.Release.Handle(r.Context(), productID, storeID, reservationID, req.Reason); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"reservation_id": req.ReservationID, "status": "released"}})
}

// CheckAvailability handles POST /api/v1/inventory/availability.
func (h *InventoryHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req CheckAvailabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	productID, ok := httputil.ParseUUID(w, req.ProductID)
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, req.StoreID)
	if !ok {
		return
	}

	availability, err := h.queries.CheckAvailability(r.Context(), productID, storeID, req.RequiredQuantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"available":     availability.Available,
		"current_stock": availability.CurrentStock,
		"required":      availability.RequiredStock,
	}})
}

// GetStock handles GET /api/v1/inventory/products/{productId}/stores/{storeId}.
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	storeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "storeId"))
	if !ok {
		return
	}

	stock, err := h.queries.GetStock(r.Context(), productID, storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stock})
}

// GetProductInventory handles GET /api/v1/inventory/products/{productId}.
func (h *InventoryHandler) GetProductInventory(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	records, err := h.queries.GetProductInventory(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if len(records) == 0 {
		httputil.WriteError(w, r, apperrors.NotFound("inventory_projection", productID.String()), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: records})
}
