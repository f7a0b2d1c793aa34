package http

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/liam996405/uv-index-service/internal/observability"
)

// RouterConfig configures the middleware around the /api routes.
type RouterConfig struct {
	Limiter        *rate.Limiter // nil disables rate limiting
	RequestTimeout time.Duration // 0 disables the per-request deadline
	AllowedOrigins []string      // empty disables CORS headers
}

// NewRouter wires every route and middleware onto h.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(h.logger))
	router.Use(MetricsMiddleware)
	router.Use(RecoveryMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(cfg.Limiter))
	if cfg.RequestTimeout > 0 {
		api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	api.HandleFunc("/cities", h.ListCities).Methods(http.MethodGet)
	api.HandleFunc("/cities/search", h.SearchCities).Methods(http.MethodGet)
	api.HandleFunc("/uv-index", h.ListReadings).Methods(http.MethodGet)
	api.HandleFunc("/uv-index/postcode/{postcode}", h.ReadingByPostcode).Methods(http.MethodGet)
	api.HandleFunc("/uv-index/coordinates", h.ReadingByCoordinates).Methods(http.MethodGet)
	api.HandleFunc("/uv-index/city/{name}", h.ReadingByName).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	})

	if len(cfg.AllowedOrigins) == 0 {
		return router
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", correlationHeader}),
		handlers.ExposedHeaders([]string{correlationHeader}),
	)
	return cors(router)
}
