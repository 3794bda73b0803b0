package aggregate

import (
	"fmt"
	"time"
)

// RangeStartYMD is the fixed start of the usage reporting range. Reseller
// cost totals are accumulated from this date through the current UTC date.
const RangeStartYMD = "2025-06-01"

// ymdLayout is the calendar-date wire format used by the usage queries.
const ymdLayout = "2006-01-02"

// Window is a contiguous inclusive date range of at most 7 days, in UTC
// calendar dates.
type Window struct {
	Start string
	End   string
}

// WeekWindows decomposes [startYMD, endYMD] into consecutive 7-day windows,
// the last one clipped to endYMD. The windows are disjoint and contiguous
// and their union covers the full range exactly once. A range of a single
// day yields one single-day window; an end before the start yields none.
func WeekWindows(startYMD, endYMD string) ([]Window, error) {
	start, err := time.ParseInLocation(ymdLayout, startYMD, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", startYMD, err)
	}
	end, err := time.ParseInLocation(ymdLayout, endYMD, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", endYMD, err)
	}

	var windows []Window
	for !start.After(end) {
		wEnd := start.AddDate(0, 0, 6)
		if wEnd.After(end) {
			wEnd = end
		}
		windows = append(windows, Window{
			Start: start.Format(ymdLayout),
			End:   wEnd.Format(ymdLayout),
		})
		start = wEnd.AddDate(0, 0, 1)
	}
	return windows, nil
}
