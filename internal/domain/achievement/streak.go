package achievement

import (
	"sort"
	"time"

	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// Streak counts consecutive study days ending near now.
//
// dates are the qualifying ledger dates. Walking them newest first with
// checkDate starting at now, each date whose floor-day distance from
// checkDate is at most 1 extends the streak and becomes the new checkDate.
// The walk stops at the first larger gap; later dates are never revisited.
func Streak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	streak := 0
	checkDate := now
	for _, d := range sorted {
		if timeutil.FloorDays(checkDate, d) > 1 {
			break
		}
		streak++
		checkDate = d
	}
	return streak
}
