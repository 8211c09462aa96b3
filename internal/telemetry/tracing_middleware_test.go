package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newTestTracerProvider creates a tracer provider with in-memory exporter for testing.
// The provider is automatically shut down when the test completes.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

// newTracedPlayerRouter mimics the control API routes
func newTracedPlayerRouter(t *testing.T, status int) (*tracetest.InMemoryExporter, http.Handler) {
	t.Helper()

	exporter, tp := newTestTracerProvider(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
		}
	})

	r := chi.NewRouter()
	r.Use(TracingMiddleware(tp))
	r.Get("/health", handler)
	r.Get("/metrics", handler)
	r.Get("/v1/player", handler)
	r.Post("/v1/player/seek", handler)
	r.Delete("/v1/resources/{id}", handler)
	return exporter, r
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	handler := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Round", "7")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tile-a"}`))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/resources", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "7", rr.Header().Get("X-Round"))
	assert.Equal(t, `{"id":"tile-a"}`, rr.Body.String())
}

func TestTracingMiddleware_Spans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		status     int
		wantName   string
		wantRoute  string
		wantStatus int64
		wantCode   codes.Code
	}{
		{
			name:       "implicit 200",
			method:     http.MethodGet,
			path:       "/v1/player",
			wantName:   "GET /v1/player",
			wantRoute:  "/v1/player",
			wantStatus: http.StatusOK,
			wantCode:   codes.Ok,
		},
		{
			name:       "accepted seek",
			method:     http.MethodPost,
			path:       "/v1/player/seek",
			status:     http.StatusAccepted,
			wantName:   "POST /v1/player/seek",
			wantRoute:  "/v1/player/seek",
			wantStatus: http.StatusAccepted,
			wantCode:   codes.Ok,
		},
		{
			name:       "dropped seek leaves status unset",
			method:     http.MethodPost,
			path:       "/v1/player/seek",
			status:     http.StatusConflict,
			wantName:   "POST /v1/player/seek",
			wantRoute:  "/v1/player/seek",
			wantStatus: http.StatusConflict,
			wantCode:   codes.Unset,
		},
		{
			name:       "parameterized route",
			method:     http.MethodDelete,
			path:       "/v1/resources/tile-a",
			status:     http.StatusNoContent,
			wantName:   "DELETE /v1/resources/{id}",
			wantRoute:  "/v1/resources/{id}",
			wantStatus: http.StatusNoContent,
			wantCode:   codes.Ok,
		},
		{
			name:       "server error",
			method:     http.MethodGet,
			path:       "/v1/player",
			status:     http.StatusInternalServerError,
			wantName:   "GET /v1/player",
			wantRoute:  "/v1/player",
			wantStatus: http.StatusInternalServerError,
			wantCode:   codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, router := newTracedPlayerRouter(t, tt.status)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("User-Agent", "tile-viewer/2.1")
			router.ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			attrs := spanAttrs(span)

			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, tt.wantCode, span.Status.Code)
			assert.Equal(t, tt.method, attrs[semconv.HTTPRequestMethodKey].AsString())
			assert.Equal(t, tt.path, attrs[semconv.URLPathKey].AsString())
			assert.Equal(t, tt.wantRoute, attrs[semconv.HTTPRouteKey].AsString())
			assert.Equal(t, tt.wantStatus, attrs[semconv.HTTPResponseStatusCodeKey].AsInt64())
			assert.Equal(t, "tile-viewer/2.1", attrs[semconv.UserAgentOriginalKey].AsString())
		})
	}
}

func TestTracingMiddleware_UnknownRoute(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	handler := TracingMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/resources/tile-a", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET unknown_route", spans[0].Name)
	assert.Equal(t, "unknown_route", spanAttrs(spans[0])[semconv.HTTPRouteKey].AsString())
}

func TestTracingMiddleware_TraceContextExtraction(t *testing.T) {
	t.Parallel()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter, router := newTracedPlayerRouter(t, http.StatusOK)

	const traceID = "0af7651916cd43dd8448eb211c80319c"
	req := httptest.NewRequest(http.MethodGet, "/v1/player", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-b7ad6b7169203331-01")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext.TraceID().String())
}

func TestTracingMiddleware_SkipsProbes(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			exporter, router := newTracedPlayerRouter(t, http.StatusOK)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, exporter.GetSpans())
		})
	}
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Mozilla/5.0", truncateUserAgent("Mozilla/5.0"))
	assert.Len(t, truncateUserAgent(strings.Repeat("a", MaxUserAgentLength)), MaxUserAgentLength)
	assert.Len(t, truncateUserAgent(strings.Repeat("a", MaxUserAgentLength+100)), MaxUserAgentLength)
}
