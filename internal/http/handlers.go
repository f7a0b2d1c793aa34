package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/liam996405/uv-index-service/internal/feed"
	"github.com/liam996405/uv-index-service/internal/lifecycle"
	"github.com/liam996405/uv-index-service/internal/models"
	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/service"
	"github.com/liam996405/uv-index-service/internal/traffic"
	"github.com/liam996405/uv-index-service/internal/validation"
)

const maxNameLength = 100

// FeedState reports the feed cache's refresh state. *feed.Cache implements it.
type FeedState interface {
	State() (fetchedAt time.Time, loaded bool, lastErr error)
	TTL() time.Duration
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	// Window and ErrorPct mark the service degraded when at least ErrorPct
	// percent of feed refreshes in Window failed. Zero disables the check.
	Window   time.Duration
	ErrorPct int
	// CachePing, when set, is called to check snapshot store reachability.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	uv               *service.UVService
	feed             FeedState
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. feedState and healthConfig may be nil.
func NewHandler(uv *service.UVService, feedState FeedState, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		uv:           uv,
		feed:         feedState,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// ListCities handles GET /api/cities.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.uv.AllCities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// SearchCities handles GET /api/cities/search?name=.
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("name")
	if strings.TrimSpace(raw) == "" {
		writeJSON(w, http.StatusOK, []models.CityRecord{})
		return
	}
	name, err := validation.ValidateSearchName(raw, maxNameLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_NAME", err.Error())
		return
	}
	cities, err := h.uv.SearchCities(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// ListReadings handles GET /api/uv-index.
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.uv.ListReadings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// ReadingByPostcode handles GET /api/uv-index/postcode/{postcode}. A value
// that cannot be a postcode is answered like an unknown one, without a lookup.
func (h *Handler) ReadingByPostcode(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["postcode"]
	postcode, err := validation.ValidatePostcode(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "POSTCODE_NOT_FOUND", "No city found for postcode "+strings.TrimSpace(raw))
		return
	}
	result, err := h.uv.ReadingByPostcode(r.Context(), postcode)
	if errors.Is(err, service.ErrPostcodeNotFound) {
		writeError(w, r, http.StatusNotFound, "POSTCODE_NOT_FOUND", "No city found for postcode "+postcode)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ReadingByCoordinates handles GET /api/uv-index/coordinates?lat=&lng=.
func (h *Handler) ReadingByCoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lng, err := validation.ParseCoordinates(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
		return
	}
	result, err := h.uv.ReadingByCoordinates(r.Context(), lat, lng)
	var nse *service.NoStationError
	if errors.As(err, &nse) {
		writeError(w, r, http.StatusNotFound, "NO_STATION_DATA", "No UV index data found for "+nse.City)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ReadingByName handles GET /api/uv-index/city/{name}.
func (h *Handler) ReadingByName(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateLocation(mux.Vars(r)["name"], 1, maxNameLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	reading, err := h.uv.ReadingByName(r.Context(), name)
	if errors.Is(err, service.ErrLocationNotFound) {
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "No UV index data found for "+name)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
	checks     map[string]string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "uv-index-service",
		"version":   "dev",
		"checks":    result.checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.feed != nil {
		if fetchedAt, loaded, _ := h.feed.State(); loaded {
			resp["feedFetchedAt"] = fetchedAt.UTC().Format(time.RFC3339)
		}
	}
	if since, ok := lifecycle.ShutdownStarted(); ok {
		resp["shutdownStartedAt"] = since.UTC().Format(time.RFC3339)
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in order: shutting-down, database
// reachability, feed refresh error rate. Cache and feed freshness are
// reported as checks but do not change the status on their own.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	checks := map[string]string{
		"database": "healthy",
		"feed":     h.feedCheck(),
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal", checks}
	}
	if err := h.uv.Ping(ctx); err != nil {
		checks["database"] = "unhealthy"
		return healthResult{"degraded", http.StatusServiceUnavailable, "database_unreachable", checks}
	}
	if h.healthConfig != nil && h.healthConfig.Window > 0 && h.healthConfig.ErrorPct > 0 {
		errs, total := traffic.Feed.ErrorRate(h.healthConfig.Window)
		if total > 0 && float64(errs)*100/float64(total) >= float64(h.healthConfig.ErrorPct) {
			checks["feed"] = "unhealthy"
			return healthResult{"degraded", http.StatusServiceUnavailable, "feed_error_rate", checks}
		}
	}
	return healthResult{"healthy", http.StatusOK, "", checks}
}

func (h *Handler) feedCheck() string {
	if h.feed == nil {
		return "unknown"
	}
	_, loaded, lastErr := h.feed.State()
	switch {
	case !loaded:
		return "not_loaded"
	case lastErr != nil:
		return "stale"
	default:
		return "healthy"
	}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with the request's
// correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

// writeServiceError maps errors not handled by the endpoint itself. An
// exhausted feed becomes FEED_UNAVAILABLE; anything else is INTERNAL_ERROR.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFrom(r.Context(), nil)
	if errors.Is(err, feed.ErrFeedUnavailable) {
		logger.Error("uv feed unavailable", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "FEED_UNAVAILABLE", "UV data is currently unavailable")
		return
	}
	logger.Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
