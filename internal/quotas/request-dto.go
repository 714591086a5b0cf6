package quotas

// DayCapacityRequest is one target day with its desired per-category beds.
// Day accepts dd.mm.yyyy or yyyy-mm-dd. Closed marks the day as part of the
// adjusted-closed set: it gets a CLOSED record even at zero capacity.
type DayCapacityRequest struct {
	Day        string         `json:"day" binding:"required"`
	Capacities map[string]int `json:"capacities" binding:"required"`
	Closed     bool           `json:"closed"`
}

// ReconcileOptions pass caller intent through to the platform and steer the
// split behaviour. AutoSplit and CleanupExisting default to true.
type ReconcileOptions struct {
	PermitOverbook   bool  `json:"permit_overbook"`
	PermitModeChange bool  `json:"permit_mode_change"`
	SeriesWide       bool  `json:"series_wide"`
	AutoSplit        *bool `json:"auto_split"`
	CleanupExisting  *bool `json:"cleanup_existing"`
}

// autoSplit resolves the default.
func (o ReconcileOptions) autoSplit() bool {
	return o.AutoSplit == nil || *o.AutoSplit
}

// cleanupExisting resolves the default.
func (o ReconcileOptions) cleanupExisting() bool {
	return o.CleanupExisting == nil || *o.CleanupExisting
}

// ReconcileRequest is the caller-supplied target state.
type ReconcileRequest struct {
	Days    []DayCapacityRequest `json:"days" binding:"required,min=1,dive"`
	Options ReconcileOptions     `json:"options"`
}

// ImportRequest asks for a mirror refresh of one date range.
type ImportRequest struct {
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to" binding:"required"`
}
