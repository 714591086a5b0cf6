package quotas

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeEnd(t *testing.T) {
	assert.Equal(t, day("2026-06-02"), normalizeEnd(day("2026-06-01"), day("2026-06-02")), "valid range untouched")
	assert.Equal(t, day("2026-06-02"), normalizeEnd(day("2026-06-01"), day("2026-06-01")), "end equal to start covers the start day")
	assert.Equal(t, day("2026-06-02"), normalizeEnd(day("2026-06-01"), day("2026-05-20")), "end before start covers the start day")
}

func TestExpandDays(t *testing.T) {
	days := expandDays(day("2026-06-01"), day("2026-06-04"))
	assert.Equal(t, []time.Time{day("2026-06-01"), day("2026-06-02"), day("2026-06-03")}, days)

	assert.Equal(t, []time.Time{day("2026-06-01")}, expandDays(day("2026-06-01"), day("2026-06-01")),
		"defective range still covers the start day")
}

func TestGroupContiguous(t *testing.T) {
	ranges := groupContiguous([]time.Time{
		day("2026-06-05"),
		day("2026-06-01"),
		day("2026-06-02"),
		day("2026-06-02"), // duplicate
		day("2026-06-06"),
	})

	assert.Equal(t, []DateRange{
		{From: day("2026-06-01"), To: day("2026-06-03")},
		{From: day("2026-06-05"), To: day("2026-06-07")},
	}, ranges)
}

func TestGroupContiguousEmpty(t *testing.T) {
	assert.Nil(t, groupContiguous(nil))
}

func TestClassifyNoOverlap(t *testing.T) {
	rec := QuotaRecord{DateFrom: day("2026-06-01"), DateTo: day("2026-06-05")}
	cls := classify(rec, NewDaySet(day("2026-07-01")))
	assert.Equal(t, overlapNone, cls.kind)
}

func TestClassifyFullOverlap(t *testing.T) {
	rec := QuotaRecord{DateFrom: day("2026-06-10"), DateTo: day("2026-06-11")}
	cls := classify(rec, NewDaySet(day("2026-06-10"), day("2026-06-11")))

	assert.Equal(t, overlapFull, cls.kind)
	assert.Empty(t, cls.preserved)
	assert.Equal(t, []time.Time{day("2026-06-10")}, cls.overlapped)
}

// A month-long record hit in the middle must yield the two flanking
// fragments, with nothing lost.
func TestClassifyPartialOverlapSplitsAroundTargets(t *testing.T) {
	rec := QuotaRecord{DateFrom: day("2026-06-01"), DateTo: day("2026-07-01")}
	targets := NewDaySet(day("2026-06-10"), day("2026-06-11"), day("2026-06-12"))

	cls := classify(rec, targets)
	require.Equal(t, overlapPartial, cls.kind)

	assert.Equal(t, []DateRange{
		{From: day("2026-06-01"), To: day("2026-06-10")},
		{From: day("2026-06-13"), To: day("2026-07-01")},
	}, cls.preserved)
	assert.Len(t, cls.overlapped, 3)
}

func TestClassifyPartialOverlapAtRecordEdge(t *testing.T) {
	rec := QuotaRecord{DateFrom: day("2026-06-01"), DateTo: day("2026-06-05")}
	cls := classify(rec, NewDaySet(day("2026-06-01")))

	require.Equal(t, overlapPartial, cls.kind)
	assert.Equal(t, []DateRange{{From: day("2026-06-02"), To: day("2026-06-05")}}, cls.preserved)
}

// Randomized check of the coverage invariant: preserved days plus overlapped
// days always reassemble the record's exact coverage.
func TestClassifyCoverageInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := day("2026-01-01")

	for i := 0; i < 200; i++ {
		start := base.AddDate(0, 0, rng.Intn(60))
		length := 1 + rng.Intn(40)
		rec := QuotaRecord{DateFrom: start, DateTo: start.AddDate(0, 0, length)}

		targets := make(DaySet)
		for j := 0; j < rng.Intn(15); j++ {
			targets[base.AddDate(0, 0, rng.Intn(100))] = struct{}{}
		}

		cls := classify(rec, targets)

		reassembled := make(DaySet)
		for _, r := range cls.preserved {
			for _, d := range expandDays(r.From, r.To) {
				reassembled[d] = struct{}{}
			}
		}
		for _, d := range cls.overlapped {
			reassembled[d] = struct{}{}
		}

		if cls.kind == overlapNone {
			continue
		}

		covered := expandDays(rec.DateFrom, rec.DateTo)
		require.Len(t, reassembled, len(covered), "iteration %d: day count changed", i)
		for _, d := range covered {
			require.True(t, reassembled.Contains(d), "iteration %d: day %s lost", i, d.Format("2006-01-02"))
		}

		// preserved and overlapped never share a day
		for _, r := range cls.preserved {
			for _, d := range expandDays(r.From, r.To) {
				require.False(t, targets.Contains(d), "iteration %d: preserved a target day", i)
			}
		}
	}
}

func TestDaySetBounds(t *testing.T) {
	_, _, ok := make(DaySet).Bounds()
	assert.False(t, ok)

	set := NewDaySet(day("2026-06-12"), day("2026-06-10"), day("2026-06-11"))
	min, max, ok := set.Bounds()
	require.True(t, ok)
	assert.Equal(t, day("2026-06-10"), min)
	assert.Equal(t, day("2026-06-12"), max)
}

func TestDaySetSorted(t *testing.T) {
	set := NewDaySet(day("2026-06-12"), day("2026-06-10"))
	assert.Equal(t, []time.Time{day("2026-06-10"), day("2026-06-12")}, set.Sorted())
}
