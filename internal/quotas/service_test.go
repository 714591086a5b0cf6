package quotas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"hutsync/internal/hrs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVendor serves the platform's login handshake and quota endpoints with
// a fixed set of records, recording every mutation.
type fakeVendor struct {
	mu       sync.Mutex
	records  []hrs.QuotaDTO
	deleted  []int64
	saved    []hrs.QuotaDTO
	listHits int

	failListing   bool
	deleteReplies map[int64]int // remote id -> vendor message id, default "deleted"
}

func (v *fakeVendor) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SESSION", Value: "s"})
	})
	mux.HandleFunc("GET /api/v1/csrf", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "t"})
		json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	})
	mux.HandleFunc("POST /api/v1/users/verifyEmail", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {})

	mux.HandleFunc("GET /api/v1/manage/hutQuota", func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.listHits++
		if v.failListing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(struct {
			Content []hrs.QuotaDTO `json:"content"`
			Last    bool           `json:"last"`
		}{Content: v.records, Last: true})
	})

	mux.HandleFunc("DELETE /api/v1/manage/hutQuota/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		v.mu.Lock()
		defer v.mu.Unlock()
		v.deleted = append(v.deleted, id)

		messageID := 138
		if reply, ok := v.deleteReplies[id]; ok {
			messageID = reply
		}
		json.NewEncoder(w).Encode(hrs.VendorMessage{MessageID: messageID, Message: "delete reply"})
	})

	mux.HandleFunc("POST /api/v1/manage/hutQuota", func(w http.ResponseWriter, r *http.Request) {
		var dto hrs.QuotaDTO
		json.NewDecoder(r.Body).Decode(&dto)
		v.mu.Lock()
		defer v.mu.Unlock()
		v.saved = append(v.saved, dto)
		json.NewEncoder(w).Encode(hrs.VendorMessage{MessageID: 126, Message: "saved"})
	})

	return mux
}

func (v *fakeVendor) savedTitles() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	titles := make([]string, len(v.saved))
	for i, dto := range v.saved {
		titles[i] = dto.Title
	}
	return titles
}

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu           sync.Mutex
	rows         []Quota
	replaceCalls int
	lastHutID    int
	lastFrom     time.Time
	lastTo       time.Time
}

func (r *fakeRepo) ReplaceWindow(ctx context.Context, hutID int, from, to time.Time, rows []Quota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	r.lastHutID = hutID
	r.lastFrom = from
	r.lastTo = to
	r.rows = rows
	return nil
}

func (r *fakeRepo) ListWindow(ctx context.Context, hutID int, from, to time.Time) ([]Quota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows, nil
}

func (r *fakeRepo) CountWindow(ctx context.Context, hutID int, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func newTestService(t *testing.T, vendor *fakeVendor) (Service, *fakeRepo) {
	t.Helper()
	server := httptest.NewServer(vendor.handler())
	t.Cleanup(server.Close)

	client := hrs.NewClient(hrs.Config{
		BaseURL:  server.URL,
		Username: "hut@example.com",
		Password: "secret",
		HutID:    42,
		// no MutationPause; tests must not sleep
	})

	repo := &fakeRepo{}
	return NewService(client, repo, 30), repo
}

func capRequest(day string, beds int) DayCapacityRequest {
	return DayCapacityRequest{Day: day, Capacities: map[string]int{"lager": beds}}
}

// A month-long record partially covered by the target days is deleted and
// its flanking fragments recreated with a split marker.
func TestReconcilePartialOverlapSplits(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:              101,
		Title:           "Sommer",
		ReservationMode: hrs.ModeServiced,
		DateFrom:        "01.06.2026",
		DateTo:          "01.07.2026",
		BedCategories:   []hrs.BedCategoryDTO{{CategoryID: 1, TotalSleepingPlaces: 10}},
	}}}
	svc, repo := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 20),
		capRequest("2026-06-11", 20),
		capRequest("2026-06-12", 20),
	}})
	require.NoError(t, err)

	assert.True(t, result.Success, "message: %s", result.Message)
	assert.Equal(t, []int64{101}, vendor.deleted)

	require.Len(t, vendor.saved, 5, "two fragments plus three target days")
	assert.Equal(t, []string{
		"Sommer (split)",
		"Sommer (split)",
		"Kontingent 10.06.2026",
		"Kontingent 11.06.2026",
		"Kontingent 12.06.2026",
	}, vendor.savedTitles())

	// fragment boundaries flank the target days exactly
	assert.Equal(t, "01.06.2026", vendor.saved[0].DateFrom)
	assert.Equal(t, "10.06.2026", vendor.saved[0].DateTo)
	assert.Equal(t, "13.06.2026", vendor.saved[1].DateFrom)
	assert.Equal(t, "01.07.2026", vendor.saved[1].DateTo)

	// fragments inherit the original capacities, target days get the new ones
	assert.Equal(t, 10, vendor.saved[0].Capacity)
	assert.Equal(t, 20, vendor.saved[2].Capacity)

	assert.Equal(t, 1, repo.replaceCalls, "mirror window rewritten once")
	assert.Equal(t, 42, repo.lastHutID)
	assert.Equal(t, day("2026-05-11"), repo.lastFrom, "window widened by the safety margin")
	assert.Equal(t, day("2026-07-13"), repo.lastTo)
}

func TestReconcileFullOverlapNoSplit(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:              200,
		Title:           "Tag",
		ReservationMode: hrs.ModeServiced,
		DateFrom:        "10.06.2026",
		DateTo:          "11.06.2026",
	}}}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 15),
	}})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []int64{200}, vendor.deleted)
	assert.Equal(t, []string{"Kontingent 10.06.2026"}, vendor.savedTitles(), "nothing to preserve, no split records")
}

func TestReconcileAlreadyDeletedIsSuccess(t *testing.T) {
	vendor := &fakeVendor{
		records: []hrs.QuotaDTO{{
			ID:       300,
			DateFrom: "10.06.2026",
			DateTo:   "11.06.2026",
		}},
		deleteReplies: map[int64]int{300: 136},
	}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 5),
	}})
	require.NoError(t, err)

	assert.True(t, result.Success, "an already-deleted record matches intent")
	require.Len(t, result.Deleted, 1)
	assert.True(t, result.Deleted[0].Success)
	assert.Equal(t, "ALREADY_SATISFIED", result.Deleted[0].Outcome)
}

func TestReconcileRejectedDeleteFailsRun(t *testing.T) {
	vendor := &fakeVendor{
		records: []hrs.QuotaDTO{{
			ID:       400,
			DateFrom: "10.06.2026",
			DateTo:   "11.06.2026",
		}},
		deleteReplies: map[int64]int{400: 133}, // overbooking refusal
	}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 5),
	}})
	require.NoError(t, err, "per-item failures do not error the run")

	assert.False(t, result.Success)
	require.Len(t, result.Deleted, 1)
	assert.False(t, result.Deleted[0].Success)
	assert.Equal(t, "REJECTED", result.Deleted[0].Outcome)
	assert.Contains(t, result.Message, "failed")

	// the create phase still ran
	assert.Equal(t, []string{"Kontingent 10.06.2026"}, vendor.savedTitles())
}

// Blackout records are split and preserved like any other, but their
// overwrite is surfaced separately for the operator.
func TestReconcileClosedOverlapReported(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:              500,
		Title:           "Wartung",
		ReservationMode: hrs.ModeClosed,
		DateFrom:        "08.06.2026",
		DateTo:          "15.06.2026",
	}}}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 8),
	}})
	require.NoError(t, err)

	require.Len(t, result.ClosedOverlaps, 1)
	assert.Equal(t, int64(500), result.ClosedOverlaps[0].RemoteID)
	assert.Equal(t, "OVERWRITTEN", result.ClosedOverlaps[0].Outcome)

	// preserved fragments keep the CLOSED mode
	require.GreaterOrEqual(t, len(vendor.saved), 2)
	assert.Equal(t, hrs.ModeClosed, vendor.saved[0].ReservationMode)
	assert.Equal(t, "Wartung (split)", vendor.saved[0].Title)
}

func TestReconcileZeroCapacityDays(t *testing.T) {
	vendor := &fakeVendor{}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		{Day: "2026-06-10", Capacities: map[string]int{"lager": 0}},
		{Day: "2026-06-11", Capacities: map[string]int{}, Closed: true},
	}})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, vendor.saved, 1, "zero capacity without closure creates nothing")
	assert.Equal(t, hrs.ModeClosed, vendor.saved[0].ReservationMode)
	assert.Equal(t, "11.06.2026", vendor.saved[0].DateFrom)
}

func TestReconcileDeduplicatesRemoteIDs(t *testing.T) {
	dup := hrs.QuotaDTO{
		ID:       600,
		DateFrom: "10.06.2026",
		DateTo:   "12.06.2026",
	}
	vendor := &fakeVendor{records: []hrs.QuotaDTO{dup, dup}}
	svc, _ := newTestService(t, vendor)

	_, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 5),
		capRequest("2026-06-11", 5),
	}})
	require.NoError(t, err)

	assert.Equal(t, []int64{600}, vendor.deleted, "a record listed twice is deleted once")
}

func TestReconcileAbortsWhenListingFails(t *testing.T) {
	vendor := &fakeVendor{failListing: true}
	svc, repo := newTestService(t, vendor)

	_, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 5),
	}})

	require.Error(t, err)
	assert.Empty(t, vendor.deleted, "no mutation on a partial view")
	assert.Empty(t, vendor.saved)
	assert.Zero(t, repo.replaceCalls)
}

func TestReconcileCleanupDisabled(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:       700,
		DateFrom: "10.06.2026",
		DateTo:   "11.06.2026",
	}}}
	svc, _ := newTestService(t, vendor)

	off := false
	_, err := svc.Reconcile(context.Background(), ReconcileRequest{
		Days:    []DayCapacityRequest{capRequest("2026-06-10", 5)},
		Options: ReconcileOptions{CleanupExisting: &off},
	})
	require.NoError(t, err)

	assert.Empty(t, vendor.deleted)
	assert.Equal(t, []string{"Kontingent 10.06.2026"}, vendor.savedTitles())
}

func TestReconcileAutoSplitDisabled(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:       800,
		Title:    "Sommer",
		DateFrom: "01.06.2026",
		DateTo:   "01.07.2026",
	}}}
	svc, _ := newTestService(t, vendor)

	off := false
	_, err := svc.Reconcile(context.Background(), ReconcileRequest{
		Days:    []DayCapacityRequest{capRequest("2026-06-10", 5)},
		Options: ReconcileOptions{AutoSplit: &off},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{800}, vendor.deleted)
	for _, title := range vendor.savedTitles() {
		assert.False(t, strings.HasSuffix(title, "(split)"), "no fragments when splitting is off")
	}
}

func TestReconcileValidation(t *testing.T) {
	vendor := &fakeVendor{}
	svc, _ := newTestService(t, vendor)
	ctx := context.Background()

	tests := []struct {
		name string
		days []DayCapacityRequest
	}{
		{"no days", nil},
		{"bad date", []DayCapacityRequest{capRequest("tomorrow", 5)}},
		{"duplicate day", []DayCapacityRequest{capRequest("2026-06-10", 5), capRequest("10.06.2026", 5)}},
		{"unknown category", []DayCapacityRequest{{Day: "2026-06-10", Capacities: map[string]int{"suite": 1}}}},
		{"negative capacity", []DayCapacityRequest{{Day: "2026-06-10", Capacities: map[string]int{"lager": -1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reconcile(ctx, ReconcileRequest{Days: tt.days})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, vendor.listHits, "validation failures never reach the platform")
}

// Reconciling the same target state twice converges: the second run deletes
// the day records the first one created and recreates them identically.
func TestReconcileIdempotentTargets(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{{
		ID:              900,
		Title:           "Kontingent 10.06.2026",
		ReservationMode: hrs.ModeServiced,
		DateFrom:        "10.06.2026",
		DateTo:          "11.06.2026",
		BedCategories:   []hrs.BedCategoryDTO{{CategoryID: 1, TotalSleepingPlaces: 20}},
	}}}
	svc, _ := newTestService(t, vendor)

	result, err := svc.Reconcile(context.Background(), ReconcileRequest{Days: []DayCapacityRequest{
		capRequest("2026-06-10", 20),
	}})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []int64{900}, vendor.deleted)
	require.Len(t, vendor.saved, 1)
	assert.Equal(t, 20, vendor.saved[0].Capacity)
	assert.Empty(t, result.ClosedOverlaps)
}

func TestImportRange(t *testing.T) {
	vendor := &fakeVendor{records: []hrs.QuotaDTO{
		{ID: 1, DateFrom: "01.06.2026", DateTo: "05.06.2026"},
		{ID: 2, DateFrom: "05.06.2026", DateTo: "10.06.2026"},
	}}
	svc, repo := newTestService(t, vendor)

	result, err := svc.ImportRange(context.Background(), day("2026-06-01"), day("2026-07-01"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, "2026-06-01", result.DateFrom)
	assert.Equal(t, "2026-07-01", result.DateTo)
	assert.Equal(t, 1, repo.replaceCalls)
	require.Len(t, repo.rows, 2)
	assert.Equal(t, int64(1), repo.rows[0].RemoteID)
}

func TestImportRangeRejectsEmptyRange(t *testing.T) {
	svc, _ := newTestService(t, &fakeVendor{})
	_, err := svc.ImportRange(context.Background(), day("2026-06-10"), day("2026-06-10"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListMirrorWithoutCache(t *testing.T) {
	svc, repo := newTestService(t, &fakeVendor{})
	repo.rows = []Quota{{
		ID:       1,
		RemoteID: 11,
		HutID:    42,
		DateFrom: day("2026-06-01"),
		DateTo:   day("2026-06-05"),
		Capacity: 10,
		BedCategories: []QuotaBedCategory{
			{CategoryCode: "lager", SleepingPlaces: 10},
		},
	}}

	responses, err := svc.ListMirror(context.Background(), day("2026-06-01"), day("2026-07-01"))
	require.NoError(t, err)

	require.Len(t, responses, 1)
	assert.Equal(t, "2026-06-01", responses[0].DateFrom)
	assert.Equal(t, map[string]int{"lager": 10}, responses[0].BedCategories)
}

func TestListMirrorRejectsEmptyRange(t *testing.T) {
	svc, _ := newTestService(t, &fakeVendor{})
	_, err := svc.ListMirror(context.Background(), day("2026-06-10"), day("2026-06-09"))
	assert.ErrorIs(t, err, ErrValidation)
}
