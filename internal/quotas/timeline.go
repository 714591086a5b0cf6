package quotas

import (
	"sort"
	"time"

	"hutsync/internal/hrs"
)

// DateRange is a half-open day range [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days covered.
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours() / 24)
}

// DaySet is a set of calendar days (UTC midnights).
type DaySet map[time.Time]struct{}

// NewDaySet builds a set from the given days, truncating each to its day.
func NewDaySet(days ...time.Time) DaySet {
	set := make(DaySet, len(days))
	for _, d := range days {
		set[hrs.Day(d)] = struct{}{}
	}
	return set
}

// Contains reports membership of the day.
func (s DaySet) Contains(day time.Time) bool {
	_, ok := s[hrs.Day(day)]
	return ok
}

// Sorted returns the days in ascending order.
func (s DaySet) Sorted() []time.Time {
	days := make([]time.Time, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Bounds returns the earliest and latest day; ok is false for an empty set.
func (s DaySet) Bounds() (min, max time.Time, ok bool) {
	for d := range s {
		if !ok || d.Before(min) {
			min = d
		}
		if !ok || d.After(max) {
			max = d
		}
		ok = true
	}
	return min, max, ok
}

// normalizeEnd repairs defective remote data where the exclusive end is not
// after the start: such a record still covers its start day, so the end
// becomes start+1.
func normalizeEnd(from, to time.Time) time.Time {
	from = hrs.Day(from)
	to = hrs.Day(to)
	if !to.After(from) {
		return from.AddDate(0, 0, 1)
	}
	return to
}

// expandDays lists every calendar day of [from, to).
func expandDays(from, to time.Time) []time.Time {
	from = hrs.Day(from)
	to = normalizeEnd(from, to)

	var days []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// groupContiguous folds a day set into maximal contiguous [from, to) ranges.
func groupContiguous(days []time.Time) []DateRange {
	if len(days) == 0 {
		return nil
	}

	sorted := make([]time.Time, len(days))
	for i, d := range days {
		sorted[i] = hrs.Day(d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var ranges []DateRange
	start := sorted[0]
	prev := sorted[0]
	for _, d := range sorted[1:] {
		if d.Equal(prev) {
			continue
		}
		if !d.Equal(prev.AddDate(0, 0, 1)) {
			ranges = append(ranges, DateRange{From: start, To: prev.AddDate(0, 0, 1)})
			start = d
		}
		prev = d
	}
	ranges = append(ranges, DateRange{From: start, To: prev.AddDate(0, 0, 1)})
	return ranges
}

// overlapKind classifies a record against the target day set.
type overlapKind int

const (
	overlapNone overlapKind = iota
	// overlapFull: every covered day is a target day; delete, recreate nothing
	overlapFull
	// overlapPartial: some covered days are outside the target set and must
	// be preserved as new records
	overlapPartial
)

// classification is the outcome of classifying one record.
type classification struct {
	kind overlapKind
	// preserved are the non-target days of the record, grouped into maximal
	// contiguous ranges. Only set for partial overlaps.
	preserved []DateRange
	// overlapped are the record's days that are target days.
	overlapped []time.Time
}

// classify intersects a record's day coverage with the target set.
// Invariant: preserved days plus overlapped days exactly equal the record's
// coverage; deleting the record and recreating the preserved ranges never
// drops a day.
func classify(rec QuotaRecord, targets DaySet) classification {
	covered := expandDays(rec.DateFrom, rec.DateTo)

	var preservedDays []time.Time
	var overlapped []time.Time
	for _, d := range covered {
		if targets.Contains(d) {
			overlapped = append(overlapped, d)
		} else {
			preservedDays = append(preservedDays, d)
		}
	}

	if len(overlapped) == 0 {
		return classification{kind: overlapNone}
	}
	if len(preservedDays) == 0 {
		return classification{kind: overlapFull, overlapped: overlapped}
	}
	return classification{
		kind:       overlapPartial,
		preserved:  groupContiguous(preservedDays),
		overlapped: overlapped,
	}
}
