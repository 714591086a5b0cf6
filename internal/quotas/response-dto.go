package quotas

import (
	"time"

	"hutsync/internal/hrs"
)

// ItemResult reports the fate of one remote operation. The batch keeps
// going past individual failures, so callers must read these, not just the
// top-level flag.
type ItemResult struct {
	RemoteID int64  `json:"remote_id,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Title    string `json:"title,omitempty"`
	Success  bool   `json:"success"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
}

// ReconcileResult is the full outcome of one reconciliation run.
// Success means "no item failed and the mirror refresh went through".
type ReconcileResult struct {
	RunID   string `json:"run_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`

	Deleted []ItemResult `json:"deleted"`
	Created []ItemResult `json:"created"`

	// ClosedOverlaps surfaces CLOSED (blackout) records the run overwrote,
	// for operator visibility. They are split and preserved like any other.
	ClosedOverlaps []ItemResult `json:"closed_overlaps"`

	RefreshedFrom string `json:"refreshed_from,omitempty"`
	RefreshedTo   string `json:"refreshed_to,omitempty"`
}

// failedCount counts failed items across both phases.
func (r *ReconcileResult) failedCount() int {
	n := 0
	for _, it := range r.Deleted {
		if !it.Success {
			n++
		}
	}
	for _, it := range r.Created {
		if !it.Success {
			n++
		}
	}
	return n
}

// ImportResult is the outcome of a mirror refresh.
type ImportResult struct {
	RunID    string `json:"run_id"`
	Success  bool   `json:"success"`
	Records  int    `json:"records"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// QuotaResponse is the mirror read shape served to the booking system.
type QuotaResponse struct {
	ID              uint              `json:"id"`
	RemoteID        int64             `json:"remote_id"`
	HutID           int               `json:"hut_id"`
	DateFrom        string            `json:"date_from"`
	DateTo          string            `json:"date_to"`
	Title           string            `json:"title"`
	ReservationMode string            `json:"reservation_mode"`
	Capacity        int               `json:"capacity"`
	BedCategories   map[string]int    `json:"bed_categories"`
	Descriptions    map[string]string `json:"descriptions,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToResponse converts a mirror row for the API.
func (q *Quota) ToResponse() QuotaResponse {
	categories := make(map[string]int, len(q.BedCategories))
	for _, bc := range q.BedCategories {
		categories[bc.CategoryCode] = bc.SleepingPlaces
	}

	var descriptions map[string]string
	if len(q.Descriptions) > 0 {
		descriptions = make(map[string]string, len(q.Descriptions))
		for _, d := range q.Descriptions {
			descriptions[d.Language] = d.Description
		}
	}

	return QuotaResponse{
		ID:              q.ID,
		RemoteID:        q.RemoteID,
		HutID:           q.HutID,
		DateFrom:        q.DateFrom.Format(hrs.ISODateFormat),
		DateTo:          q.DateTo.Format(hrs.ISODateFormat),
		Title:           q.Title,
		ReservationMode: q.ReservationMode,
		Capacity:        q.Capacity,
		BedCategories:   categories,
		Descriptions:    descriptions,
		UpdatedAt:       q.UpdatedAt,
	}
}
