package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/livestatus"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxWatchedOrders bounds how many orders one stream may watch.
const maxWatchedOrders = 20

// StatusStreamHandler streams live order status updates over server-sent
// events. Each connection runs its own watcher; the subscription ends when
// the client disconnects.
type StatusStreamHandler struct {
	history service.OrderHistoryService
	source  livestatus.Source
	logger  zerolog.Logger
}

// NewStatusStreamHandler creates a new status stream handler.
func NewStatusStreamHandler(history service.OrderHistoryService, source livestatus.Source, logger zerolog.Logger) *StatusStreamHandler {
	return &StatusStreamHandler{
		history: history,
		source:  source,
		logger:  logger.With().Str("handler", "status-stream").Logger(),
	}
}

// Stream handles GET /api/orders/stream?ids=... requests.
func (h *StatusStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, model.ErrCodeInvalidJSON, "method not allowed", h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming unsupported", h.logger)
		return
	}

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "ids is required", h.logger)
		return
	}

	rawIDs := strings.Split(idsParam, ",")
	if len(rawIDs) > maxWatchedOrders {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField,
			fmt.Sprintf("at most %d orders can be watched", maxWatchedOrders), h.logger)
		return
	}

	var orders []model.Order
	for _, raw := range rawIDs {
		orderID, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid order ID format", h.logger)
			return
		}

		order, err := h.history.GetByID(r.Context(), orderID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to retrieve order", h.logger)
			return
		}
		if order == nil {
			// Unknown orders are simply not watched
			continue
		}
		orders = append(orders, *order)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	notifier := newSSENotifier(w, flusher)
	watcher := livestatus.NewWatcher(h.source, notifier, h.logger)
	defer watcher.Close()

	if err := watcher.Watch(r.Context(), orders); err != nil {
		h.logger.Error().Err(err).Msg("failed to establish status subscription")
		return
	}

	h.logger.Debug().Int("order_count", len(orders)).Msg("status stream opened")

	<-r.Context().Done()
}

// sseNotifier renders watcher effects as named server-sent events. The
// watcher delivers from timer goroutines, so writes are serialized.
type sseNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

func newSSENotifier(w io.Writer, flusher http.Flusher) *sseNotifier {
	return &sseNotifier{w: w, flusher: flusher}
}

func (n *sseNotifier) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "event: %s\ndata: %s\n\n", event, data)
	n.flusher.Flush()
}

func (n *sseNotifier) StatusChanged(orderID uuid.UUID, status model.OrderStatus, reason *string) {
	n.send("status", map[string]any{
		"orderId":            orderID,
		"status":             status,
		"cancellationReason": reason,
	})
}

func (n *sseNotifier) LiveIndicator(orderID uuid.UUID, visible bool) {
	n.send("live", map[string]any{
		"orderId": orderID,
		"visible": visible,
	})
}

func (n *sseNotifier) PlayCue() {
	n.send("cue", map[string]any{})
}
