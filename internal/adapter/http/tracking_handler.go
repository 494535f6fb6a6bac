package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kitchen/orders/{id}/history", h.GetStageHistory)
	r.Get("/terminals/status", h.GetTerminalsStatus)
}

func (h *TrackingHandler) GetStageHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	history, err := h.service.GetStageHistory(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, "Order not found", http.StatusNotFound, nil)
			return
		}
		h.logger.Error("db_query_failed", "Failed to load stage history", RequestIDFrom(r.Context()), nil, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	resp := make([]interfaces.StageLogResource, len(history))
	for i, log := range history {
		resp[i] = interfaces.StageLogResource{
			Stage:     log.Stage,
			ChangedBy: log.ChangedBy,
			Timestamp: log.ChangedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) GetTerminalsStatus(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("request_received", "Terminals status requested", RequestIDFrom(r.Context()), nil)

	terminals, err := h.service.GetTerminalsStatus(r.Context())
	if err != nil {
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	resp := make([]interfaces.TerminalResource, len(terminals))
	for i, t := range terminals {
		resp[i] = interfaces.TerminalResource{
			Name:              t.Name,
			Status:            t.Status,
			TransitionsIssued: t.TransitionsIssued,
			LastSeen:          t.LastSeen,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
