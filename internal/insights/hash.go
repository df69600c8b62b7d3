package insights

import (
	"fmt"
	"sort"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

type habitFingerprint struct {
	ID        string
	Name      string
	Category  string
	Frequency string
	Archived  bool
}

type completionFingerprint struct {
	ID          string
	HabitID     string
	Day         string
	CompletedAt string
	Note        string
	Mood        string
}

type fingerprint struct {
	Habits      []habitFingerprint
	Completions []completionFingerprint
}

// RecentCompletions returns up to n completions, newest first.
func RecentCompletions(completions []models.Completion, n int) []models.Completion {
	recent := make([]models.Completion, len(completions))
	copy(recent, completions)
	sort.SliceStable(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.After(b.CompletedAt)
		}
		if a.Day != b.Day {
			return a.Day > b.Day
		}
		return a.ID > b.ID
	})
	if n >= 0 && len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

// DataHash fingerprints the structured input an insight is generated from.
// Input order does not matter; any change to a habit or to a completion's
// day, note or mood changes the result.
func DataHash(habits []models.Habit, completions []models.Completion) (string, error) {
	fp := fingerprint{
		Habits:      make([]habitFingerprint, 0, len(habits)),
		Completions: make([]completionFingerprint, 0, len(completions)),
	}

	for _, h := range habits {
		fp.Habits = append(fp.Habits, habitFingerprint{
			ID:        h.ID,
			Name:      h.Name,
			Category:  h.Category,
			Frequency: string(h.Frequency),
			Archived:  h.Archived(),
		})
	}
	sort.Slice(fp.Habits, func(i, j int) bool { return fp.Habits[i].ID < fp.Habits[j].ID })

	for _, c := range completions {
		completedAt := ""
		if !c.CompletedAt.IsZero() {
			completedAt = c.CompletedAt.UTC().Format(constants.TimestampFormat)
		}
		fp.Completions = append(fp.Completions, completionFingerprint{
			ID:          c.ID,
			HabitID:     c.HabitID,
			Day:         c.Date().Format(constants.DateFormat),
			CompletedAt: completedAt,
			Note:        c.Note,
			Mood:        string(c.Mood),
		})
	}
	sort.Slice(fp.Completions, func(i, j int) bool {
		a, b := fp.Completions[i], fp.Completions[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.HabitID != b.HabitID {
			return a.HabitID < b.HabitID
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.CompletedAt < b.CompletedAt
	})

	sum, err := hashstructure.Hash(fp, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("failed to hash insight input: %w", err)
	}
	return fmt.Sprintf("%016x", sum), nil
}
