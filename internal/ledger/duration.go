package ledger

import (
	"fmt"
	"time"
)

// Duration is an elapsed stay broken into whole days, whole hours within
// the remaining time and whole minutes within the remaining hour.
//
// The breakdown is computed from the exact wall-clock difference with no
// calendar-month arithmetic. When the exit precedes the entry the day count
// goes negative while hours and minutes stay in their usual ranges, e.g. an
// exit one hour before entry reads "-1 days, 23 hours, 0 minutes". Nothing
// is clamped.
type Duration struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// Breakdown computes the stay duration between entry and exit.
func Breakdown(entry, exit time.Time) Duration {
	total := int64(exit.Sub(entry) / time.Second)

	days := total / 86400
	rem := total - days*86400
	if rem < 0 {
		// Floor the day count so the remainder is always non-negative.
		days--
		rem += 86400
	}

	return Duration{
		Days:    days,
		Hours:   rem / 3600,
		Minutes: (rem % 3600) / 60,
	}
}

// String renders the historical report format.
func (d Duration) String() string {
	return fmt.Sprintf("%d days, %d hours, %d minutes", d.Days, d.Hours, d.Minutes)
}
