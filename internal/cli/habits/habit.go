package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
	"github.com/aandrew-el/habit-tracker-sub000/internal/streak"
	"github.com/aandrew-el/habit-tracker-sub000/internal/utils"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits with their streaks."`
	Mark    HabitMarkCmd    `cmd:"" help:"Mark a habit as done for a day (toggles)."`
	Mood    HabitMoodCmd    `cmd:"" help:"Set the mood or note of a completion."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit (soft delete)."`
	Restore HabitRestoreCmd `cmd:"" help:"Restore a deleted habit."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Category  string `help:"Category, e.g. health or mind." default:""`
	Frequency string `help:"daily or weekly." enum:"daily,weekly" default:"daily"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("habit name cannot be empty")
	}

	if _, err := ctx.Store.GetHabitByName(bg, ctx.Scope, name); err == nil {
		return fmt.Errorf("habit with name %q already exists", name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	habit := models.Habit{
		ID:        uuid.New().String(),
		UserID:    ctx.Scope.UserID,
		Name:      name,
		Category:  strings.ToLower(strings.TrimSpace(c.Category)),
		Frequency: models.Frequency(c.Frequency),
		CreatedAt: ctx.Clock(),
	}
	if !habit.Frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", c.Frequency)
	}

	if err := ctx.Store.AddHabit(bg, ctx.Scope, habit); err != nil {
		return err
	}

	ctx.Printf("Added habit: %s\n", name)
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	Deleted  bool `help:"Include deleted habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habits, err := ctx.Store.GetAllHabits(bg, ctx.Scope, c.Archived, c.Deleted)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	completions, err := ctx.Store.FetchCompletions(bg, ctx.Scope, 0)
	if err != nil {
		return err
	}
	byHabit := make(map[string][]models.Completion)
	for _, comp := range completions {
		byHabit[comp.HabitID] = append(byHabit[comp.HabitID], comp)
	}

	now := ctx.Clock().In(ctx.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, h := range habits {
		dates := models.CompletionDates(byHabit[h.ID])
		status := ""
		switch {
		case h.DeletedAt != nil:
			status = cli.DangerStyle.Render(" [DELETED]")
		case h.ArchivedAt != nil:
			status = cli.SubtleStyle.Render(" [ARCHIVED]")
		}

		category := h.Category
		if category == "" {
			category = "-"
		}
		detail := fmt.Sprintf("%s, %s", category, h.Frequency)
		if status == "" {
			// Completions are only loaded for active habits.
			detail += fmt.Sprintf(", streak %d (best %d)", streak.Current(dates, today), streak.Longest(dates))
		}
		ctx.Printf("%-20s %s%s\n", h.Name, cli.SubtleStyle.Render(detail), status)
	}
	return nil
}

type HabitMarkCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Date     string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Note     string `help:"Optional note for this entry." default:""`
	Mood     string `help:"Mood for this entry (terrible, bad, okay, good, great)." default:""`
	PickMood bool   `help:"Choose the mood interactively." name:"pick-mood"`
}

func (c *HabitMarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habit, err := ctx.Store.GetHabitByName(bg, ctx.Scope, c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	day, completedAt, err := resolveDay(ctx, c.Date)
	if err != nil {
		return err
	}

	mood := models.Mood(c.Mood)
	if c.PickMood {
		if mood, err = pickMood(); err != nil {
			return err
		}
	}
	if mood != "" && !mood.Valid() {
		return fmt.Errorf("invalid mood %q", c.Mood)
	}

	existing, err := ctx.Store.GetCompletion(bg, ctx.Scope, habit.ID, day)
	switch {
	case err == nil && mood == "" && c.Note == "":
		if err := ctx.Store.DeleteCompletion(bg, ctx.Scope, existing.ID); err != nil {
			return err
		}
		ctx.Printf("Unmarked habit %q for %s\n", habit.Name, day)
		return nil
	case err == nil:
		return updateDetails(ctx, existing, habit.Name, c.Note, mood)
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	now := ctx.Clock()
	completion := models.Completion{
		ID:          uuid.New().String(),
		UserID:      ctx.Scope.UserID,
		HabitID:     habit.ID,
		Day:         day,
		CompletedAt: completedAt,
		Note:        c.Note,
		Mood:        mood,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ctx.Store.AddCompletion(bg, ctx.Scope, completion); err != nil {
		return err
	}
	ctx.Printf("Marked habit %q for %s\n", habit.Name, day)

	unlocked, err := ctx.Celebrate(bg)
	if err != nil {
		// The completion is saved; a failed celebration can be retried later.
		ctx.Printf("%s\n", cli.WarningStyle.Render("Could not check achievements: "+err.Error()))
		return nil
	}
	for _, a := range unlocked {
		ctx.Printf("%s %s %s\n", a.Icon, cli.SuccessStyle.Render("Achievement unlocked: "+a.Title), cli.SubtleStyle.Render("("+string(a.Rarity)+")"))
	}
	return nil
}

type HabitMoodCmd struct {
	Name string `arg:"" help:"Habit name."`
	Mood string `arg:"" help:"Mood (terrible, bad, okay, good, great) or 'none' to clear."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Note string `help:"Replace the note as well." default:""`
}

func (c *HabitMoodCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habit, err := ctx.Store.GetHabitByName(bg, ctx.Scope, c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}
	day, _, err := resolveDay(ctx, c.Date)
	if err != nil {
		return err
	}

	mood := models.Mood(c.Mood)
	if c.Mood == "none" {
		mood = ""
	} else if !mood.Valid() {
		return fmt.Errorf("invalid mood %q", c.Mood)
	}

	existing, err := ctx.Store.GetCompletion(bg, ctx.Scope, habit.ID, day)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit %q is not marked for %s", habit.Name, day)
	}
	if err != nil {
		return err
	}

	// An explicit mood always replaces the stored one, including "none".
	existing.Mood = ""
	return updateDetails(ctx, existing, habit.Name, c.Note, mood)
}

type HabitArchiveCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Store.GetHabitByName(bg, ctx.Scope, c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}
	if err := ctx.Store.ArchiveHabit(bg, ctx.Scope, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Archived habit: %s\n", habit.Name)
	return nil
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, err := ctx.Store.GetHabitByName(bg, ctx.Scope, c.Name)
	if err != nil {
		return fmt.Errorf("habit %q not found", c.Name)
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Store.DeleteHabit(bg, ctx.Scope, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Name)
	ctx.Printf("Use 'habitkit habit restore %q' to undo.\n", habit.Name)
	return nil
}

type HabitRestoreCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	habits, err := ctx.Store.GetAllHabits(bg, ctx.Scope, true, true)
	if err != nil {
		return err
	}

	var target *models.Habit
	for i := range habits {
		if habits[i].Name == c.Name && habits[i].DeletedAt != nil {
			// Several deleted habits may share a name; restore the newest.
			if target == nil || habits[i].DeletedAt.After(*target.DeletedAt) {
				target = &habits[i]
			}
		}
	}
	if target == nil {
		return fmt.Errorf("no deleted habit named %q", c.Name)
	}

	if err := ctx.Store.RestoreHabit(bg, ctx.Scope, target.ID); err != nil {
		return err
	}
	ctx.Printf("Restored habit: %s\n", target.Name)
	return nil
}

// resolveDay turns an optional --date into the completion day and timestamp.
// Backdated entries are stamped at noon local time.
func resolveDay(ctx *cli.Context, date string) (string, time.Time, error) {
	today := ctx.Today()
	if date == "" || date == today {
		return today, ctx.Clock(), nil
	}

	d, err := utils.ParseDate(date)
	if err != nil {
		return "", time.Time{}, err
	}
	if date > today {
		return "", time.Time{}, fmt.Errorf("cannot mark a future date: %s", date)
	}
	loc := ctx.Location()
	return d.Format(constants.DateFormat), time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), nil
}

func updateDetails(ctx *cli.Context, c models.Completion, habitName, note string, mood models.Mood) error {
	if note == "" {
		note = c.Note
	}
	if mood == "" {
		mood = c.Mood
	}
	if err := ctx.Store.UpdateCompletionDetails(context.Background(), ctx.Scope, c.ID, note, mood); err != nil {
		return err
	}
	label := string(mood)
	if label == "" {
		label = "no mood"
	}
	ctx.Printf("Updated %q for %s: %s\n", habitName, c.Day, label)
	return nil
}

func pickMood() (models.Mood, error) {
	var mood models.Mood
	options := make([]huh.Option[models.Mood], 0, len(models.Moods))
	for i := len(models.Moods) - 1; i >= 0; i-- {
		m := models.Moods[i]
		options = append(options, huh.NewOption(strings.ToUpper(string(m[:1]))+string(m[1:]), m))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.Mood]().
				Title("How did it feel?").
				Options(options...).
				Value(&mood),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("mood selection cancelled: %w", err)
	}
	return mood, nil
}
