package insights

import (
	"testing"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

func mustHash(t *testing.T, habits []models.Habit, completions []models.Completion) string {
	t.Helper()
	h, err := DataHash(habits, completions)
	if err != nil {
		t.Fatalf("DataHash failed: %v", err)
	}
	return h
}

func TestDataHash_OrderInsensitive(t *testing.T) {
	habits, completions := formatterFixture()
	want := mustHash(t, habits, completions)

	reversedHabits := make([]models.Habit, len(habits))
	for i, h := range habits {
		reversedHabits[len(habits)-1-i] = h
	}
	reversedCompletions := make([]models.Completion, len(completions))
	for i, c := range completions {
		reversedCompletions[len(completions)-1-i] = c
	}

	if got := mustHash(t, reversedHabits, reversedCompletions); got != want {
		t.Errorf("hash depends on input order: %s vs %s", got, want)
	}
	if len(want) != 16 {
		t.Errorf("expected 16 hex digits, got %q", want)
	}
}

func TestDataHash_SensitiveToContent(t *testing.T) {
	habits, completions := formatterFixture()
	base := mustHash(t, habits, completions)

	mutations := map[string]func(h []models.Habit, c []models.Completion){
		"mood":      func(h []models.Habit, c []models.Completion) { c[0].Mood = models.MoodGood },
		"note":      func(h []models.Habit, c []models.Completion) { c[1].Note = "tired" },
		"day":       func(h []models.Habit, c []models.Completion) { c[3].Day = "2023-12-21" },
		"rename":    func(h []models.Habit, c []models.Completion) { h[0].Name = "Pilates" },
		"frequency": func(h []models.Habit, c []models.Completion) { h[1].Frequency = models.FrequencyWeekly },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			h, c := formatterFixture()
			mutate(h, c)
			if got := mustHash(t, h, c); got == base {
				t.Errorf("changing %s did not change the hash", name)
			}
		})
	}
}

func TestRecentCompletions(t *testing.T) {
	_, completions := formatterFixture()

	recent := RecentCompletions(completions, 3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(recent))
	}
	want := []string{"c5", "c3", "c2"}
	for i, id := range want {
		if recent[i].ID != id {
			t.Errorf("recent[%d] = %s, want %s", i, recent[i].ID, id)
		}
	}
	if completions[0].ID != "c1" {
		t.Error("RecentCompletions must not reorder its input")
	}

	if all := RecentCompletions(completions, 100); len(all) != len(completions) {
		t.Errorf("expected all %d completions, got %d", len(completions), len(all))
	}
}

// A completion older than the hashed window cannot affect the hash.
func TestDataHash_WindowBoundsInput(t *testing.T) {
	habits, completions := formatterFixture()
	window := RecentCompletions(completions, 3)
	before := mustHash(t, habits, window)

	completions[3].Note = "edited long ago" // c4, the oldest
	after := mustHash(t, habits, RecentCompletions(completions, 3))
	if before != after {
		t.Error("edits outside the window changed the hash")
	}
}
