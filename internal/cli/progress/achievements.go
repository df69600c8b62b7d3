package progress

import (
	"context"
	"fmt"

	"github.com/aandrew-el/habit-tracker-sub000/internal/achievements"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

type AchievementsCmd struct {
	List      AchievementsListCmd      `cmd:"" help:"Show achievements and progress." default:"1"`
	Celebrate AchievementsCelebrateCmd `cmd:"" help:"Show achievements unlocked since last time."`
}

type AchievementsListCmd struct {
	Locked bool `help:"Include locked achievements." default:"true" negatable:""`
}

func (c *AchievementsListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habits, err := ctx.Store.FetchHabits(bg, ctx.Scope)
	if err != nil {
		return err
	}
	completions, err := ctx.Store.FetchCompletions(bg, ctx.Scope, 0)
	if err != nil {
		return err
	}

	progress := achievements.Progress(achievements.StatsFrom(habits, completions, ctx.Location()))

	unlocked := 0
	var category models.AchievementCategory
	for _, p := range progress {
		if p.IsUnlocked {
			unlocked++
		}
		if !p.IsUnlocked && !c.Locked {
			continue
		}
		if p.Achievement.Category != category {
			category = p.Achievement.Category
			ctx.Println(cli.TitleStyle.Render(string(category)))
		}
		ctx.Println(formatProgress(p))
	}

	ctx.Printf("\n%d of %d unlocked\n", unlocked, len(progress))
	return nil
}

func formatProgress(p models.AchievementProgress) string {
	a := p.Achievement
	if p.IsUnlocked {
		return fmt.Sprintf("  %s %s %s", a.Icon, cli.SuccessStyle.Render(a.Title), cli.SubtleStyle.Render("("+string(a.Rarity)+")"))
	}
	return fmt.Sprintf("  %s %s %s %3d%%  %s",
		a.Icon,
		cli.SubtleStyle.Render(fmt.Sprintf("%-16s", a.Title)),
		cli.Bar(p.ProgressPercentage, 10),
		p.ProgressPercentage,
		cli.SubtleStyle.Render(a.Description))
}

type AchievementsCelebrateCmd struct{}

func (c *AchievementsCelebrateCmd) Run(ctx *cli.Context) error {
	fresh, err := ctx.Celebrate(context.Background())
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		ctx.Println("Nothing new to celebrate.")
		return nil
	}
	for _, a := range fresh {
		ctx.Printf("%s %s %s\n  %s\n", a.Icon, cli.SuccessStyle.Render(a.Title), cli.SubtleStyle.Render("("+string(a.Rarity)+")"), a.Description)
	}
	return nil
}
