package achievements

import (
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/streak"
)

func localHour(c models.Completion, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return c.CompletedAt.In(loc).Hour()
}

// HasEarlyBird reports whether any completion happened before 6 AM local time.
func HasEarlyBird(completions []models.Completion, loc *time.Location) bool {
	for _, c := range completions {
		if c.CompletedAt.IsZero() {
			continue
		}
		if localHour(c, loc) < constants.EarlyBirdHour {
			return true
		}
	}
	return false
}

// HasNightOwl reports whether any completion happened at or after 10 PM local time.
func HasNightOwl(completions []models.Completion, loc *time.Location) bool {
	for _, c := range completions {
		if c.CompletedAt.IsZero() {
			continue
		}
		if localHour(c, loc) >= constants.NightOwlHour {
			return true
		}
	}
	return false
}

// HasComebackKid reports whether any habit was resumed after a gap of three or
// more days between two of its completions.
func HasComebackKid(completions []models.Completion) bool {
	byHabit := make(map[string][]time.Time)
	for _, c := range completions {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c.Date())
	}

	gap := time.Duration(constants.ComebackGapDays) * 24 * time.Hour
	for _, dates := range byHabit {
		days := streak.Days(dates)
		for i := 1; i < len(days); i++ {
			if days[i].Sub(days[i-1]) >= gap {
				return true
			}
		}
	}
	return false
}

// StatsFrom builds a stats snapshot from active habits and their completions.
// MaxStreak is the longest run achieved by any single habit.
func StatsFrom(habits []models.Habit, completions []models.Completion, loc *time.Location) Stats {
	habits, completions = models.ActiveOnly(habits, completions)

	categories := make(map[string]struct{})
	for _, h := range habits {
		if h.Category != "" {
			categories[h.Category] = struct{}{}
		}
	}

	byHabit := make(map[string][]time.Time)
	for _, c := range completions {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c.Date())
	}

	stats := Stats{
		TotalCompletions: len(completions),
		HabitCount:       len(habits),
		CategoryCount:    len(categories),
		HasEarlyBird:     HasEarlyBird(completions, loc),
		HasNightOwl:      HasNightOwl(completions, loc),
		HasComebackKid:   HasComebackKid(completions),
	}
	for _, dates := range byHabit {
		if n := streak.Longest(dates); n > stats.MaxStreak {
			stats.MaxStreak = n
		}
	}
	return stats
}
