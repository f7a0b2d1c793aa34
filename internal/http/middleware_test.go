package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/traffic"
)

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	var seenID string
	var seenLogger bool
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		seenID = observability.CorrelationID(r.Context())
		_, seenLogger = r.Context().Value(observability.LoggerKey).(*zap.Logger)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seenID != "abc-123" {
		t.Errorf("context correlation ID = %q, want abc-123", seenID)
	}
	if got := w.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("response header = %q, want abc-123", got)
	}
	if !seenLogger {
		t.Error("request context missing logger")
	}
}

func TestMiddleware_CorrelationIDGenerated(t *testing.T) {
	router := NewRouter(newTestHandler(nil, nil), RouterConfig{})
	w := serve(t, router, "/api/cities")
	if got := w.Header().Get("X-Correlation-ID"); len(got) != 36 {
		t.Errorf("generated correlation ID = %q, want a UUID", got)
	}
}

func TestMiddleware_GetRouteUsesTemplate(t *testing.T) {
	var route string
	router := mux.NewRouter()
	router.HandleFunc("/api/uv-index/postcode/{postcode}", func(w http.ResponseWriter, r *http.Request) {
		route = getRoute(r)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/uv-index/postcode/3000", nil))
	if route != "/api/uv-index/postcode/{postcode}" {
		t.Errorf("getRoute() = %q, want template", route)
	}

	if got := getRoute(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); got != "unmatched" {
		t.Errorf("getRoute() without route = %q, want unmatched", got)
	}
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rec.statusCode)
	}
	if got := statusCodeString(rec.statusCode); got != "4xx" {
		t.Errorf("statusCodeString() = %q, want 4xx", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.Use(RecoveryMiddleware)
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if code, _ := decodeError(t, w); code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected panic to be logged")
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	var ctxErr error
	h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
		<-r.Context().Done()
		ctxErr = r.Context().Err()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !hasDeadline {
		t.Error("context has no deadline")
	}
	if ctxErr != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctxErr)
	}
}

func TestRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	traffic.API.Reset()
	t.Cleanup(traffic.API.Reset)

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	router := NewRouter(newTestHandler(nil, nil), RouterConfig{Limiter: limiter})

	if w := serve(t, router, "/api/cities"); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	w := serve(t, router, "/api/cities")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if code, _ := decodeError(t, w); code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", code)
	}
	if n := traffic.API.DenialCount(time.Minute); n != 1 {
		t.Errorf("DenialCount() = %d, want 1", n)
	}
	if n := traffic.API.RequestCount(time.Minute); n != 2 {
		t.Errorf("RequestCount() = %d, want 2", n)
	}

	// Health and metrics are outside the limited subrouter.
	if w := serve(t, router, "/health"); w.Code == http.StatusTooManyRequests {
		t.Error("/health was rate limited")
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	called := false
	h := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("handler not called with nil limiter")
	}
}

func TestRouter_CORS(t *testing.T) {
	router := NewRouter(newTestHandler(nil, nil), RouterConfig{AllowedOrigins: []string{"*"}})
	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Access-Control-Allow-Origin not set")
	}
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	router := NewRouter(newTestHandler(nil, nil), RouterConfig{})
	w := serve(t, router, "/api/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"NOT_FOUND"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := NewRouter(newTestHandler(nil, nil), RouterConfig{})
	serve(t, router, "/api/uv-index")
	w := serve(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/api/uv-index"`) {
		t.Error("metrics missing /api/uv-index route label")
	}
}

func TestWaitForInFlight_ReturnsWhenIdle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := WaitForInFlight(ctx, time.Millisecond); err != nil {
		t.Errorf("WaitForInFlight() error = %v", err)
	}
}

func TestWaitForInFlight_TimesOut(t *testing.T) {
	inFlight.Add(1)
	defer inFlight.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := WaitForInFlight(ctx, time.Millisecond); err != context.DeadlineExceeded {
		t.Errorf("WaitForInFlight() error = %v, want DeadlineExceeded", err)
	}
}
