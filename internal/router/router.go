package router

import (
	"net/http"
	"strings"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/handler"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	statusHandler *handler.StatusStreamHandler,
	promotionHandler *handler.PromotionHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case path == "/api/orders/search" || path == "/api/orders/search/":
			orderHandler.Search(w, r)
		case path == "/api/orders/stream" || path == "/api/orders/stream/":
			statusHandler.Stream(w, r)
		case strings.HasSuffix(path, "/reorder"):
			orderHandler.Reorder(w, r)
		case strings.HasSuffix(path, "/cancel"):
			orderHandler.Cancel(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Promotion handler function
	promotionRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case path == "/api/promotions/events" || path == "/api/promotions/events/":
			promotionHandler.Track(w, r)
		case path == "/api/promotions/analytics" || path == "/api/promotions/analytics/":
			promotionHandler.Analytics(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	mux.HandleFunc("/api/promotions/", promotionRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
