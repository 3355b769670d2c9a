package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/promotion"

	"github.com/rs/zerolog"
)

// PromotionHandler handles promotion tracking HTTP requests.
type PromotionHandler struct {
	tracker promotion.Tracker
	logger  zerolog.Logger
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(tracker promotion.Tracker, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		tracker: tracker,
		logger:  logger.With().Str("handler", "promotion").Logger(),
	}
}

// Track handles POST /api/promotions/events requests.
func (h *PromotionHandler) Track(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	var event promotion.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if event.SessionID == "" {
		event.SessionID = r.Header.Get(sessionHeader)
	}

	if err := h.tracker.Track(r.Context(), event); err != nil {
		if derr, ok := asDomainError(err); ok {
			writeDomainError(w, domainStatus(derr), derr, h.logger)
			return
		}
		if strings.Contains(err.Error(), "required") {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, err.Error(), h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to record event", h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// Analytics handles GET /api/promotions/analytics requests.
func (h *PromotionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	companyID := r.URL.Query().Get("companyId")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "companyId is required", h.logger)
		return
	}

	report, err := h.tracker.Analytics(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to load analytics", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
