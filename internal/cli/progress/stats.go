package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
)

type StatsCmd struct {
	Chart bool `help:"Draw completions by weekday." default:"true" negatable:""`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habits, err := ctx.Store.FetchHabits(bg, ctx.Scope)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits yet. Add one with 'habitkit habit add'.")
		return nil
	}
	completions, err := ctx.Store.FetchCompletions(bg, ctx.Scope, 0)
	if err != nil {
		return err
	}

	s := insights.Summarize(habits, completions, ctx.Clock().In(ctx.Location()))

	ctx.Println(cli.TitleStyle.Render("Habit stats as of " + s.AsOf))
	ctx.Println(cli.BoxStyle.Render(strings.Join([]string{
		fmt.Sprintf("Habits:           %d (%d daily)", s.TotalHabits, s.DailyHabits),
		fmt.Sprintf("Completions:      %d", s.TotalCompletions),
		fmt.Sprintf("Last 7 days:      %d%%", s.CompletionRate7d),
		fmt.Sprintf("Last 30 days:     %d%%", s.CompletionRate30d),
	}, "\n")))

	ctx.Println()
	for _, h := range s.Habits {
		ctx.Printf("%-20s %s  streak %d, best %d, %d total\n",
			h.Name,
			cli.Bar(percentOf(h.Last7Days, 7), 7),
			h.CurrentStreak, h.LongestStreak, h.TotalCompletions)
	}

	if c.Chart && s.TotalCompletions > 0 {
		ctx.Println()
		ctx.Println(WeekdayChart(s.Weekdays))
	}

	var moods []string
	for _, m := range s.MoodCounts {
		if m.Count > 0 {
			moods = append(moods, fmt.Sprintf("%s %d", m.Mood, m.Count))
		}
	}
	if len(moods) > 0 {
		ctx.Println()
		ctx.Println(cli.SubtleStyle.Render("Moods: " + strings.Join(moods, ", ")))
	}
	return nil
}

// WeekdayChart plots completions per weekday, Sunday first.
func WeekdayChart(days []insights.WeekdayCount) string {
	data := make([]float64, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		data[i] = float64(d.Count)
		labels[i] = d.Day[:3]
	}
	return asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(35),
		asciigraph.Precision(0),
		asciigraph.Caption("Completions by weekday ("+strings.Join(labels, " ")+")"),
	)
}

func percentOf(n, of int) int {
	if of == 0 {
		return 0
	}
	if n > of {
		n = of
	}
	return n * 100 / of
}
