package models

import (
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

type Mood string

const (
	MoodTerrible Mood = "terrible"
	MoodBad      Mood = "bad"
	MoodOkay     Mood = "okay"
	MoodGood     Mood = "good"
	MoodGreat    Mood = "great"
)

// Moods lists every mood from worst to best.
var Moods = []Mood{MoodTerrible, MoodBad, MoodOkay, MoodGood, MoodGreat}

// Valid reports whether m is a known mood. The empty mood is not valid.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

// Habit represents a recurring practice to track
type Habit struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Frequency  Frequency  `json:"frequency"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (h Habit) Archived() bool {
	return h.ArchivedAt != nil
}

// Completion records that a habit was done on a given day.
type Completion struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	HabitID     string     `json:"habit_id"`
	Day         string     `json:"day"` // YYYY-MM-DD format
	CompletedAt time.Time  `json:"completed_at"`
	Note        string     `json:"note"`
	Mood        Mood       `json:"mood,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Date returns the calendar day of the completion at UTC midnight. Day takes
// precedence over CompletedAt when both are set.
func (c Completion) Date() time.Time {
	if c.Day != "" {
		if d, err := time.Parse(constants.DateFormat, c.Day); err == nil {
			return d
		}
	}
	t := c.CompletedAt.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CompletionDates returns the calendar day of every completion.
func CompletionDates(completions []Completion) []time.Time {
	dates := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		dates = append(dates, c.Date())
	}
	return dates
}

// ActiveOnly drops archived and deleted habits, and every completion that does
// not belong to a remaining habit.
func ActiveOnly(habits []Habit, completions []Completion) ([]Habit, []Completion) {
	ids := make(map[string]struct{}, len(habits))
	active := make([]Habit, 0, len(habits))
	for _, h := range habits {
		if h.Archived() || h.DeletedAt != nil {
			continue
		}
		ids[h.ID] = struct{}{}
		active = append(active, h)
	}

	kept := make([]Completion, 0, len(completions))
	for _, c := range completions {
		if _, ok := ids[c.HabitID]; ok && c.DeletedAt == nil {
			kept = append(kept, c)
		}
	}
	return active, kept
}
