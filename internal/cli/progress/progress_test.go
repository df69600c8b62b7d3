package progress

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/config"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/sqlite"
)

var testNow = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

func setupSeededContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habitkit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bg := context.Background()
	scope := storage.UserScope("u1")
	habit := models.Habit{ID: "h1", UserID: "u1", Name: "Read", Category: "mind", Frequency: models.FrequencyDaily, CreatedAt: testNow.AddDate(0, 0, -10)}
	if err := store.AddHabit(bg, scope, habit); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		at := time.Date(2024, 1, 8+i, 9, 0, 0, 0, time.UTC)
		c := models.Completion{
			ID: "c" + string(rune('1'+i)), UserID: "u1", HabitID: "h1",
			Day: at.Format("2006-01-02"), CompletedAt: at, Mood: models.MoodGood,
			CreatedAt: at, UpdatedAt: at,
		}
		if err := store.AddCompletion(bg, scope, c); err != nil {
			t.Fatalf("AddCompletion failed: %v", err)
		}
	}

	out := &bytes.Buffer{}
	return &cli.Context{
		Store:  store,
		Config: &config.Config{Timezone: "UTC"},
		Scope:  scope,
		Out:    out,
		Now:    func() time.Time { return testNow },
	}, out
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setupSeededContext(t)

	if err := (&StatsCmd{Chart: true}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"2024-01-10", "Read", "streak 3, best 3, 3 total", "Completions by weekday", "good 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q:\n%s", want, got)
		}
	}
}

func TestWeekdayChart(t *testing.T) {
	days := []insights.WeekdayCount{
		{Day: "Sunday"}, {Day: "Monday", Count: 2}, {Day: "Tuesday", Count: 1},
		{Day: "Wednesday", Count: 3}, {Day: "Thursday"}, {Day: "Friday", Count: 1}, {Day: "Saturday"},
	}
	chart := WeekdayChart(days)
	if !strings.Contains(chart, "Sun Mon Tue Wed Thu Fri Sat") {
		t.Errorf("chart caption missing weekday labels:\n%s", chart)
	}
}

func TestAchievementsList(t *testing.T) {
	ctx, out := setupSeededContext(t)

	if err := (&AchievementsListCmd{Locked: true}).Run(ctx); err != nil {
		t.Fatalf("achievements list failed: %v", err)
	}
	got := out.String()
	// 3 completions and a 3-day streak unlock First Step and Streak Starter.
	for _, want := range []string{"First Step", "Streak Starter", "Week Warrior", "2 of "} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := (&AchievementsListCmd{Locked: false}).Run(ctx); err != nil {
		t.Fatalf("achievements list failed: %v", err)
	}
	if strings.Contains(out.String(), "Week Warrior") {
		t.Errorf("locked achievements should be hidden:\n%s", out.String())
	}
}

func TestAchievementsCelebrate(t *testing.T) {
	ctx, out := setupSeededContext(t)

	if err := (&AchievementsCelebrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("celebrate failed: %v", err)
	}
	first := out.String()
	if !strings.Contains(first, "Streak Starter") || !strings.Contains(first, "First Step") {
		t.Fatalf("expected both unlocks:\n%s", first)
	}

	out.Reset()
	if err := (&AchievementsCelebrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("celebrate failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing new") {
		t.Errorf("second celebration should be empty:\n%s", out.String())
	}
}
