package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/playback-sync/internal/api"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service/mocks"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestProbeEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		setup      func(*mocks.MockPlayerService)
		wantStatus int
		wantKeys   []string
		wantField  string
		wantValue  string
	}{
		{
			name:       "health never consults the player",
			path:       "/health",
			wantStatus: http.StatusOK,
			wantField:  "status",
			wantValue:  "healthy",
		},
		{
			name: "ready",
			path: "/readiness",
			setup: func(m *mocks.MockPlayerService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantField:  "status",
			wantValue:  "ready",
		},
		{
			name: "loop not running",
			path: "/readiness",
			setup: func(m *mocks.MockPlayerService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(errors.New("loop not running"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantKeys:   []string{"error"},
		},
		{
			name:       "version",
			path:       "/version",
			wantStatus: http.StatusOK,
			wantKeys:   []string{"version", "commit", "build_date", "go_version", "platform"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			svc := mocks.NewMockPlayerService(ctrl)
			if tt.setup != nil {
				tt.setup(svc)
			}

			rr := serve(t, api.NewServer(svc), http.MethodGet, tt.path)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			for _, key := range tt.wantKeys {
				assert.Contains(t, body, key)
			}
			if tt.wantField != "" {
				assert.Equal(t, tt.wantValue, body[tt.wantField])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPlayerService(ctrl)

	assert.Equal(t, http.StatusNotFound, serve(t, api.NewServer(svc), http.MethodGet, "/metrics").Code)

	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("playback_sync_rounds_total 1\n"))
	})
	rr := serve(t, api.NewServer(svc, api.WithMetricsHandler(scrape)), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "playback_sync_rounds_total")
}

func TestServerMountsControlRoutes(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	svc := mocks.NewMockPlayerService(ctrl)
	svc.EXPECT().State(gomock.Any()).Return(playback.State{CurrentTime: 2.5, Phase: playback.PhaseIdle}, nil)

	server := api.NewServer(svc, api.WithMiddlewares(middleware.RequestID, api.LoggingMiddleware))
	rr := serve(t, server, http.MethodGet, "/v1/player")

	require.Equal(t, http.StatusOK, rr.Code)
	var st playback.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, 2.5, st.CurrentTime)
	assert.Equal(t, playback.PhaseIdle, st.Phase)
}
