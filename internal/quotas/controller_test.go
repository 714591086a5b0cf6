package quotas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hutsync/internal/hrs"
	"hutsync/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService lets each test pin the service behaviour.
type stubService struct {
	reconcileResult *ReconcileResult
	reconcileErr    error
	importResult    *ImportResult
	importErr       error
	mirror          []QuotaResponse
	mirrorErr       error
}

func (s *stubService) SetCacheService(cache.Service) {}

func (s *stubService) SetEventPublisher(EventPublisher) {}

func (s *stubService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	return s.reconcileResult, s.reconcileErr
}

func (s *stubService) ImportRange(ctx context.Context, from, to time.Time) (*ImportResult, error) {
	return s.importResult, s.importErr
}

func (s *stubService) ListMirror(ctx context.Context, from, to time.Time) ([]QuotaResponse, error) {
	return s.mirror, s.mirrorErr
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/api/v1")
	SetupQuotaRoutes(group, NewController(svc))
	return engine
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReconcileEndpointSuccess(t *testing.T) {
	router := newTestRouter(&stubService{reconcileResult: &ReconcileResult{
		RunID:   "run-1",
		Success: true,
		Message: "reconciled 1 days, 1 records refreshed",
	}})

	rec := postJSON(router, "/api/v1/quotas/reconcile", ReconcileRequest{
		Days: []DayCapacityRequest{{Day: "2026-06-10", Capacities: map[string]int{"lager": 5}}},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-1")
}

func TestReconcileEndpointPartialFailureIsMultiStatus(t *testing.T) {
	router := newTestRouter(&stubService{reconcileResult: &ReconcileResult{
		RunID:   "run-2",
		Success: false,
		Message: "1 of 3 operations failed",
		Deleted: []ItemResult{{RemoteID: 1, Success: false, Outcome: "REJECTED"}},
	}})

	rec := postJSON(router, "/api/v1/quotas/reconcile", ReconcileRequest{
		Days: []DayCapacityRequest{{Day: "2026-06-10", Capacities: map[string]int{"lager": 5}}},
	})

	assert.Equal(t, http.StatusMultiStatus, rec.Code, "itemized result still returned")
	assert.Contains(t, rec.Body.String(), "REJECTED")
}

func TestReconcileEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: duplicate day", ErrValidation), http.StatusBadRequest},
		{"authentication", fmt.Errorf("%w: status 401", hrs.ErrAuthentication), http.StatusUnauthorized},
		{"transport", fmt.Errorf("%w: connection refused", hrs.ErrTransport), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{reconcileErr: tt.err})
			rec := postJSON(router, "/api/v1/quotas/reconcile", ReconcileRequest{
				Days: []DayCapacityRequest{{Day: "2026-06-10", Capacities: map[string]int{"lager": 5}}},
			})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestReconcileEndpointRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubService{})
	rec := postJSON(router, "/api/v1/quotas/reconcile", map[string]string{"days": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{importResult: &ImportResult{
		RunID:   "imp-1",
		Success: true,
		Records: 7,
	}})

	rec := postJSON(router, "/api/v1/quotas/import", ImportRequest{
		DateFrom: "2026-06-01",
		DateTo:   "01.07.2026",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imp-1")
}

func TestImportEndpointRejectsBadDates(t *testing.T) {
	router := newTestRouter(&stubService{})
	rec := postJSON(router, "/api/v1/quotas/import", ImportRequest{
		DateFrom: "June 1st",
		DateTo:   "2026-07-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuotasEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{mirror: []QuotaResponse{{
		RemoteID: 11,
		DateFrom: "2026-06-01",
		DateTo:   "2026-06-05",
	}}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotas?date_from=2026-06-01&date_to=2026-07-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-06-05")
}

func TestGetQuotasEndpointRequiresRange(t *testing.T) {
	router := newTestRouter(&stubService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotas", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
