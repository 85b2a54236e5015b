package viewmodel

import (
	"fmt"
	"time"
)

const absoluteLayout = "01/02/2006, 03:04 PM"

// FormatTimestamp renders ts relative to now. Anything a day or older falls
// back to an absolute en-US date in now's location.
func FormatTimestamp(ts, now time.Time) string {
	if ts.IsZero() {
		return "Unknown time"
	}

	diff := now.Sub(ts)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	default:
		return ts.In(now.Location()).Format(absoluteLayout)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
