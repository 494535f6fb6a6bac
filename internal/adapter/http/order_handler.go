package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/adapter/orderapi"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kitchen/orders", h.ListKitchenOrders)
	r.Post("/kitchen/orders", h.CreateOrder)
	r.Patch("/kitchen/orders/{id}/stage", h.UpdateStage)
	r.Patch("/kitchen/orders/{id}/archive", h.ArchiveOrder)
}

type CreateOrderRequest struct {
	TableID     *string            `json:"table_id,omitempty"`
	TableNumber *int               `json:"table_number,omitempty"`
	Lines       []OrderLineRequest `json:"lines"`
}

type OrderLineRequest struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
	Quantity   int     `json:"quantity"`
	Note       *string `json:"note,omitempty"`
}

func (h *OrderHandler) ListKitchenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListKitchenOrders(r.Context())
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to list kitchen orders", RequestIDFrom(r.Context()), nil, err)
		respondError(w, "Could not list orders", http.StatusInternalServerError, nil)
		return
	}

	resp := interfaces.OrderListResource{Orders: make([]interfaces.OrderResource, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, interfaces.NewOrderResource(*o))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())

	var req CreateOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Error("validation_failed", "Order validation failed", requestID, map[string]interface{}{
			"errors": validationErrors,
		}, fmt.Errorf("validation failed"))

		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	cmd := interfaces.CreateOrderCommand{
		TableID:     req.TableID,
		TableNumber: req.TableNumber,
		Lines:       make([]interfaces.CreateOrderLineCommand, len(req.Lines)),
	}
	for i, l := range req.Lines {
		cmd.Lines[i] = interfaces.CreateOrderLineCommand{
			MenuItemID: strings.TrimSpace(l.MenuItemID),
			Name:       strings.TrimSpace(l.Name),
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			Note:       l.Note,
		}
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", requestID, nil, err)
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	respondJSON(w, http.StatusCreated, interfaces.NewOrderResource(*order))
}

func (h *OrderHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	var req interfaces.UpdateStageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if !req.Stage.Valid() {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{{
			Field:   "stage",
			Message: "stage must be one of: PENDING, IN_PROGRESS, DONE",
		}})
		return
	}

	changedBy := r.Header.Get(orderapi.TerminalHeader)
	order, err := h.service.UpdateStage(r.Context(), orderID, req.Stage, changedBy)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	case errors.Is(err, domain.ErrInvalidStage):
		respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	case err != nil:
		h.logger.Error("stage_update_failed", "Failed to update order stage", requestID, map[string]interface{}{
			"order_id": orderID,
		}, err)
		respondError(w, "Could not update order stage", http.StatusInternalServerError, nil)
		return
	}

	respondJSON(w, http.StatusOK, interfaces.NewOrderResource(*order))
}

func (h *OrderHandler) ArchiveOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	err := h.service.ArchiveOrder(r.Context(), orderID)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	case errors.Is(err, domain.ErrOrderNotDone):
		respondError(w, "Only DONE orders can be archived", http.StatusConflict, nil)
		return
	case err != nil:
		h.logger.Error("archive_failed", "Failed to archive order", RequestIDFrom(r.Context()), map[string]interface{}{
			"order_id": orderID,
		}, err)
		respondError(w, "Could not archive order", http.StatusInternalServerError, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errors []ValidationError

	if req.TableNumber != nil && (*req.TableNumber < 1 || *req.TableNumber > 200) {
		errors = append(errors, ValidationError{
			Field:   "table_number",
			Message: "table number must be between 1 and 200",
		})
	}
	if req.TableID != nil && req.TableNumber == nil {
		errors = append(errors, ValidationError{
			Field:   "table_number",
			Message: "table number is required when table id is given",
		})
	}

	if len(req.Lines) < 1 {
		errors = append(errors, ValidationError{
			Field:   "lines",
			Message: "order must contain at least 1 line",
		})
	} else if len(req.Lines) > 50 {
		errors = append(errors, ValidationError{
			Field:   "lines",
			Message: "order must not contain more than 50 lines",
		})
	}

	for i, line := range req.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)

		name := strings.TrimSpace(line.Name)
		if len(name) < 1 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "menu item name is required",
			})
		} else if len(name) > 100 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "menu item name must not exceed 100 characters",
			})
		}

		if line.Quantity < 1 || line.Quantity > 50 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".quantity",
				Message: "quantity must be between 1 and 50",
			})
		}

		if line.Note != nil && len(*line.Note) > 200 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".note",
				Message: "note must not exceed 200 characters",
			})
		}
	}

	return errors
}
