package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/streak"
)

// HabitSummary holds the per-habit figures sent to the model.
type HabitSummary struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Frequency        models.Frequency `json:"frequency"`
	TotalCompletions int              `json:"total_completions"`
	Last7Days        int              `json:"last_7_days"`
	Last30Days       int              `json:"last_30_days"`
	CurrentStreak    int              `json:"current_streak"`
	LongestStreak    int              `json:"longest_streak"`
	RecentDates      []string         `json:"recent_dates"` // newest first
}

type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type MoodPoint struct {
	Day  string      `json:"day"`
	Mood models.Mood `json:"mood"`
}

type MoodCount struct {
	Mood  models.Mood `json:"mood"`
	Count int         `json:"count"`
}

// Summary is the compact, deterministic reduction of a user's habit data.
type Summary struct {
	AsOf              string         `json:"as_of"`
	TotalHabits       int            `json:"total_habits"`
	DailyHabits       int            `json:"daily_habits"`
	TotalCompletions  int            `json:"total_completions"`
	CompletionRate7d  int            `json:"completion_rate_7d"`
	CompletionRate30d int            `json:"completion_rate_30d"`
	Habits            []HabitSummary `json:"habits"`
	Weekdays          []WeekdayCount `json:"weekdays"` // Sunday first
	MoodTimeline      []MoodPoint    `json:"mood_timeline"`
	MoodCounts        []MoodCount    `json:"mood_counts"`
}

func inWindow(d, today time.Time, days int) bool {
	start := today.AddDate(0, 0, -(days - 1))
	return !d.Before(start) && !d.After(today)
}

// Summarize reduces habits and completions to a Summary as of now.
func Summarize(habits []models.Habit, completions []models.Completion, now time.Time) Summary {
	today := streak.Truncate(now)

	byHabit := make(map[string][]models.Completion)
	for _, c := range completions {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c)
	}

	sorted := make([]models.Habit, len(habits))
	copy(sorted, habits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	summary := Summary{
		AsOf:             today.Format(constants.DateFormat),
		TotalHabits:      len(habits),
		TotalCompletions: len(completions),
		Habits:           make([]HabitSummary, 0, len(sorted)),
	}

	for _, h := range sorted {
		days := streak.Days(models.CompletionDates(byHabit[h.ID]))
		hs := HabitSummary{
			ID:               h.ID,
			Name:             h.Name,
			Category:         h.Category,
			Frequency:        h.Frequency,
			TotalCompletions: len(byHabit[h.ID]),
			CurrentStreak:    streak.Current(days, now),
			LongestStreak:    streak.Longest(days),
			RecentDates:      []string{},
		}
		for _, d := range days {
			if inWindow(d, today, 7) {
				hs.Last7Days++
			}
			if inWindow(d, today, 30) {
				hs.Last30Days++
			}
		}
		for i := len(days) - 1; i >= 0 && len(hs.RecentDates) < constants.RecentDatesPerHabit; i-- {
			hs.RecentDates = append(hs.RecentDates, days[i].Format(constants.DateFormat))
		}
		summary.Habits = append(summary.Habits, hs)
	}

	summary.Weekdays = weekdayHistogram(completions)
	summary.MoodTimeline = moodTimeline(completions)
	summary.MoodCounts = moodCounts(summary.MoodTimeline)
	summary.DailyHabits, summary.CompletionRate7d = completionRate(habits, completions, today, 7)
	_, summary.CompletionRate30d = completionRate(habits, completions, today, 30)

	return summary
}

func weekdayHistogram(completions []models.Completion) []WeekdayCount {
	counts := make([]WeekdayCount, 7)
	for i := range counts {
		counts[i].Day = time.Weekday(i).String()
	}
	for _, c := range completions {
		counts[c.Date().Weekday()].Count++
	}
	return counts
}

// moodTimeline keeps the most recent mood-bearing days, oldest first. Several
// moods on one day collapse to the most frequent; ties go to the mood logged last.
func moodTimeline(completions []models.Completion) []MoodPoint {
	type tally struct {
		counts map[models.Mood]int
		last   map[models.Mood]time.Time
	}
	byDay := make(map[string]*tally)
	for _, c := range completions {
		if !c.Mood.Valid() {
			continue
		}
		day := c.Date().Format(constants.DateFormat)
		t, ok := byDay[day]
		if !ok {
			t = &tally{counts: make(map[models.Mood]int), last: make(map[models.Mood]time.Time)}
			byDay[day] = t
		}
		t.counts[c.Mood]++
		if c.CompletedAt.After(t.last[c.Mood]) {
			t.last[c.Mood] = c.CompletedAt
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if len(days) > constants.MoodTimelineDays {
		days = days[:constants.MoodTimelineDays]
	}

	timeline := make([]MoodPoint, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		t := byDay[days[i]]
		var best models.Mood
		for _, m := range models.Moods {
			n := t.counts[m]
			if n == 0 {
				continue
			}
			if best == "" || n > t.counts[best] || (n == t.counts[best] && t.last[m].After(t.last[best])) {
				best = m
			}
		}
		timeline = append(timeline, MoodPoint{Day: days[i], Mood: best})
	}
	return timeline
}

func moodCounts(timeline []MoodPoint) []MoodCount {
	counts := make([]MoodCount, len(models.Moods))
	index := make(map[models.Mood]int, len(models.Moods))
	for i, m := range models.Moods {
		counts[i].Mood = m
		index[m] = i
	}
	for _, p := range timeline {
		counts[index[p.Mood]].Count++
	}
	return counts
}

// completionRate returns the number of daily habits and the rounded percentage
// of possible daily check-ins done within the window ending today.
func completionRate(habits []models.Habit, completions []models.Completion, today time.Time, days int) (int, int) {
	daily := make(map[string]struct{})
	for _, h := range habits {
		if h.Frequency == models.FrequencyDaily {
			daily[h.ID] = struct{}{}
		}
	}
	if len(daily) == 0 || days <= 0 {
		return len(daily), 0
	}

	done := make(map[string]struct{})
	for _, c := range completions {
		if _, ok := daily[c.HabitID]; !ok {
			continue
		}
		d := c.Date()
		if !inWindow(d, today, days) {
			continue
		}
		done[c.HabitID+"|"+d.Format(constants.DateFormat)] = struct{}{}
	}

	rate := float64(len(done)) / float64(len(daily)*days) * 100
	return len(daily), int(math.Round(rate))
}

// PromptText flattens a summary into the user prompt sent to the model.
func PromptText(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report date: %s\n", s.AsOf)
	fmt.Fprintf(&b, "Active habits: %d (%d daily)\n", s.TotalHabits, s.DailyHabits)
	fmt.Fprintf(&b, "Total completions: %d\n", s.TotalCompletions)
	fmt.Fprintf(&b, "Daily completion rate, last 7 days: %d%%\n", s.CompletionRate7d)
	fmt.Fprintf(&b, "Daily completion rate, last 30 days: %d%%\n", s.CompletionRate30d)

	b.WriteString("\nHabits:\n")
	for _, h := range s.Habits {
		category := h.Category
		if category == "" {
			category = "uncategorized"
		}
		fmt.Fprintf(&b, "- %s [%s, %s]: %d total, %d in last 7 days, %d in last 30 days, current streak %d, longest streak %d",
			h.Name, category, h.Frequency, h.TotalCompletions, h.Last7Days, h.Last30Days, h.CurrentStreak, h.LongestStreak)
		if len(h.RecentDates) > 0 {
			fmt.Fprintf(&b, ", recent: %s", strings.Join(h.RecentDates, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nCompletions by weekday:\n")
	for _, w := range s.Weekdays {
		fmt.Fprintf(&b, "%s: %d\n", w.Day, w.Count)
	}

	b.WriteString("\nMood distribution:\n")
	for _, m := range s.MoodCounts {
		fmt.Fprintf(&b, "%s: %d\n", m.Mood, m.Count)
	}

	if len(s.MoodTimeline) > 0 {
		points := make([]string, 0, len(s.MoodTimeline))
		for _, p := range s.MoodTimeline {
			points = append(points, p.Day+" "+string(p.Mood))
		}
		fmt.Fprintf(&b, "\nMood timeline: %s\n", strings.Join(points, ", "))
	}

	return b.String()
}
