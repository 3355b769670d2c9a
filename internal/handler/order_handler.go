package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/reorder"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sessionHeader carries the anonymous storefront session identifier.
const sessionHeader = "X-Session-ID"

// OrderHandler handles order history HTTP requests.
type OrderHandler struct {
	history service.OrderHistoryService
	reorder reorder.Service
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(history service.OrderHistoryService, reorderSvc reorder.Service, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		history: history,
		reorder: reorderSvc,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// searchRequest is the body of POST /api/orders/search.
type searchRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
}

// searchResponse is the body returned by POST /api/orders/search.
type searchResponse struct {
	Orders         []model.Order `json:"orders"`
	LastIdentifier string        `json:"lastIdentifier,omitempty"`
}

// Search handles POST /api/orders/search requests.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	sessionID := r.Header.Get(sessionHeader)

	if strings.TrimSpace(req.EmailOrPhone) == "" {
		// No identifier in the body: fall back to the one the session last
		// searched with, so a returning customer resumes where they left off.
		last, err := h.history.LastIdentifier(r.Context(), sessionID)
		if err != nil || last == "" {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "email or phone is required", h.logger)
			return
		}
		req.EmailOrPhone = last
	}

	orders, err := h.history.Search(r.Context(), sessionID, req.EmailOrPhone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to search orders", h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Orders:         orders,
		LastIdentifier: strings.ToLower(strings.TrimSpace(req.EmailOrPhone)),
	})
}

// reorderRequest is the body of POST /api/orders/{id}/reorder. It carries the
// storefront the customer is browsing; the order must belong to it.
type reorderRequest struct {
	CompanyID   string `json:"companyId"`
	CompanySlug string `json:"companySlug"`
}

// Reorder handles POST /api/orders/{id}/reorder requests.
func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	orderID, ok := h.orderIDFromPath(w, r, "/reorder")
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.history.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve order", h.logger)
		return
	}
	if order == nil {
		writeDomainError(w, http.StatusNotFound, model.ErrOrderNotFound, h.logger)
		return
	}

	tenant := reorder.Tenant{CompanyID: req.CompanyID, Slug: req.CompanySlug}
	sessionID := r.Header.Get(sessionHeader)

	draft, err := h.reorder.Repeat(r.Context(), sessionID, tenant, order)
	if err != nil {
		if derr, ok := asDomainError(err); ok {
			writeDomainError(w, domainStatus(derr), derr, h.logger)
			return
		}
		// Catalog or stock lookup failed: the outcome is unknown, so the
		// customer is asked to retry rather than told the order is broken.
		h.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("reorder lookup failed")
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Title:   "Não foi possível repetir agora",
			Message: "Tente novamente em instantes.",
		})
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// cancelRequest is the body of POST /api/orders/{id}/cancel.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	orderID, ok := h.orderIDFromPath(w, r, "/cancel")
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.history.Cancel(r.Context(), orderID, req.Reason); err != nil {
		if derr, ok := asDomainError(err); ok {
			writeDomainError(w, domainStatus(derr), derr, h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to cancel order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.StatusCancelled)})
}

// orderIDFromPath extracts the order UUID from /api/orders/{id}<suffix>.
func (h *OrderHandler) orderIDFromPath(w http.ResponseWriter, r *http.Request, suffix string) (uuid.UUID, bool) {
	path := strings.TrimSuffix(r.URL.Path, suffix)
	idStr := strings.TrimPrefix(path, "/api/orders/")
	if idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "order ID is required", h.logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}

	return orderID, true
}
