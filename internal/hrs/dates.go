package hrs

import (
	"fmt"
	"time"
)

// The platform displays and transmits dates as dd.mm.yyyy. Callers and the
// local mirror use ISO. Both are accepted on input; only the platform format
// goes on the wire.
const (
	WireDateFormat = "02.01.2006"
	ISODateFormat  = "2006-01-02"
)

// ParseDate accepts dd.mm.yyyy or yyyy-mm-dd and returns a UTC midnight day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(WireDateFormat, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(ISODateFormat, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// FormatDate renders a day in the platform's wire format.
func FormatDate(t time.Time) string {
	return t.Format(WireDateFormat)
}

// Day truncates to a UTC calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
