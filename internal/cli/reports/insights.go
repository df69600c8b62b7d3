package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	apperrors "github.com/aandrew-el/habit-tracker-sub000/internal/errors"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

type InsightsCmd struct {
	Get  InsightsGetCmd  `cmd:"" help:"Get insights, generating them when the cache is stale." default:"1"`
	Show InsightsShowCmd `cmd:"" help:"Show the last stored insights without generating."`
}

type InsightsGetCmd struct {
	Type  string `help:"Insight type: weekly_summary, correlations or recommendations (default: all)." default:""`
	Force bool   `help:"Regenerate even if the cached insight is fresh."`
}

func (c *InsightsGetCmd) Run(ctx *cli.Context) error {
	ctrl := ctx.InsightController()
	bg := context.Background()

	if c.Type != "" {
		t := models.InsightType(c.Type)
		if !t.Valid() {
			return fmt.Errorf("unknown insight type %q", c.Type)
		}
		res, err := ctrl.GetInsight(bg, ctx.Scope, t, c.Force)
		if err != nil {
			return errors.New(apperrors.UserMessage(err))
		}
		render(ctx, res)
		return nil
	}

	failed := 0
	for _, o := range ctrl.GetAll(bg, ctx.Scope, c.Force) {
		if o.Err != nil {
			failed++
			ctx.Printf("%s %s\n\n", cli.TitleStyle.Render(title(o.Type)), cli.WarningStyle.Render(apperrors.UserMessage(o.Err)))
			continue
		}
		render(ctx, o.Result)
	}
	if failed == len(models.InsightTypes) {
		return errors.New("no insights available")
	}
	return nil
}

type InsightsShowCmd struct {
	Type string `help:"Insight type (default: all)." default:""`
}

func (c *InsightsShowCmd) Run(ctx *cli.Context) error {
	ctrl := ctx.InsightController()
	bg := context.Background()

	types := models.InsightTypes
	if c.Type != "" {
		t := models.InsightType(c.Type)
		if !t.Valid() {
			return fmt.Errorf("unknown insight type %q", c.Type)
		}
		types = []models.InsightType{t}
	}

	shown := 0
	for _, t := range types {
		res, err := ctrl.Cached(bg, ctx.Scope, t)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return errors.New(apperrors.UserMessage(err))
		}
		render(ctx, res)
		shown++
	}
	if shown == 0 {
		ctx.Println("No stored insights. Run 'habitkit insights get' first.")
	}
	return nil
}

func title(t models.InsightType) string {
	switch t {
	case models.InsightWeeklySummary:
		return "Weekly summary"
	case models.InsightCorrelations:
		return "Correlations"
	case models.InsightRecommendations:
		return "Recommendations"
	}
	return string(t)
}

func render(ctx *cli.Context, res *insights.Result) {
	status := "generated " + res.GeneratedAt.In(ctx.Location()).Format("2006-01-02 15:04")
	if res.Cached {
		status += ", cached until " + res.ExpiresAt.In(ctx.Location()).Format("2006-01-02 15:04")
	}
	ctx.Printf("%s %s\n", cli.TitleStyle.Render(title(res.Type)), cli.SubtleStyle.Render("("+status+")"))

	var b strings.Builder
	switch content := res.Content.(type) {
	case *models.WeeklySummary:
		fmt.Fprintf(&b, "%s\nScore: %d/100\n", content.Headline, content.OverallScore)
		list(&b, "Wins", content.Wins)
		list(&b, "To improve", content.Improvements)
		if content.Advice != "" {
			fmt.Fprintf(&b, "Advice: %s\n", content.Advice)
		}
	case *models.Correlations:
		for _, p := range content.HabitPairs {
			fmt.Fprintf(&b, "• %s + %s (%.2f): %s\n", p.HabitA, p.HabitB, p.Correlation, p.Insight)
		}
		for _, m := range content.MoodCorrelations {
			fmt.Fprintf(&b, "• %s (%s effect on mood): %s\n", m.Habit, m.Effect, m.Insight)
		}
		fmt.Fprintf(&b, "Trend: %s\n", content.TrendAnalysis)
	case *models.Recommendations:
		for _, o := range content.OptimalTimes {
			fmt.Fprintf(&b, "• %s at %s: %s\n", o.Habit, o.SuggestedTime, o.Reason)
		}
		for _, s := range content.HabitStacking {
			fmt.Fprintf(&b, "• After %s, %s: %s\n", s.Anchor, s.NewHabit, s.Reason)
		}
		for _, r := range content.AtRiskHabits {
			fmt.Fprintf(&b, "• %s is at %s risk: %s\n", r.Habit, r.RiskLevel, r.Suggestion)
		}
	}
	ctx.Println(cli.BoxStyle.Render(strings.TrimRight(b.String(), "\n")))
	ctx.Println()
}

func list(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "  • %s\n", item)
	}
}
