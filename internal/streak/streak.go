// Package streak computes consecutive-day runs from completion dates. All
// dates are truncated to calendar days in UTC before comparison.
package streak

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// Days truncates the given times to UTC calendar days, removes duplicates and
// returns them in ascending order.
func Days(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t := Truncate(d)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// Truncate returns midnight UTC of the day containing t.
func Truncate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Current returns the length of the run ending today or yesterday (UTC, relative
// to now). A run whose latest day is older than yesterday is broken and reports 0.
func Current(dates []time.Time, now time.Time) int {
	days := Days(dates)
	if len(days) == 0 {
		return 0
	}

	today := Truncate(now)
	latest := days[len(days)-1]
	if !latest.Equal(today) && !latest.Equal(today.Add(-day)) {
		return 0
	}

	count := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) != day {
			break
		}
		count++
	}
	return count
}

// Longest returns the length of the longest run of consecutive days.
func Longest(dates []time.Time) int {
	days := Days(dates)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == day {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}
