package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/achievements"
	"github.com/aandrew-el/habit-tracker-sub000/internal/backup"
	"github.com/aandrew-el/habit-tracker-sub000/internal/config"
	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/generator"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
	"github.com/aandrew-el/habit-tracker-sub000/internal/keyring"
	"github.com/aandrew-el/habit-tracker-sub000/internal/logger"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/sqlite"
	"github.com/aandrew-el/habit-tracker-sub000/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config
	Scope  storage.Scope

	// Out receives command output; nil means stdout.
	Out io.Writer
	// Now overrides the clock in tests.
	Now func() time.Time
	// Generator overrides the configured insight generator in tests.
	Generator insights.Generator
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

func (c *Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Location is the user's configured timezone, falling back to the system zone.
func (c *Context) Location() *time.Location {
	tz := ""
	if c.Config != nil {
		tz = c.Config.Timezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		logger.Warn("invalid timezone, using local time", "timezone", tz, "error", err)
		return time.Local
	}
	return loc
}

// Today returns the current day in the user's timezone.
func (c *Context) Today() string {
	return c.Clock().In(c.Location()).Format(constants.DateFormat)
}

// IsSQLite reports whether the store is a local file that can be backed up.
func (c *Context) IsSQLite() bool {
	_, ok := c.Store.(*sqlite.Store)
	return ok
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	if _, err := backup.NewManager(c.Store.GetConfigPath()).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// InsightController wires the store and the configured generator into a
// controller. A missing API key still yields a controller; generation then
// fails as service unavailable.
func (c *Context) InsightController() *insights.Controller {
	cfg := insights.DefaultConfig()
	if c.Config != nil {
		cfg = c.Config.Insights()
	}
	cfg.Now = c.Clock
	return insights.NewController(c.Store, c.Store, c.generator(), cfg)
}

func (c *Context) generator() insights.Generator {
	if c.Generator != nil {
		return c.Generator
	}

	gc := generator.Config{
		BaseURL: constants.DefaultGenerationBaseURL,
		Model:   constants.DefaultGenerationModel,
	}
	if c.Config != nil {
		gc.BaseURL = c.Config.LLMBaseURL
		gc.Model = c.Config.LLMModel
		gc.APIKey = c.Config.LLMAPIKey
	}
	if gc.APIKey == "" {
		key, err := keyring.GetAPIKey()
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			logger.Warn("could not read api key from keyring", "error", err)
		}
		gc.APIKey = key
	}
	return generator.New(gc)
}

// Celebrate reports achievements unlocked since the last celebration and
// records them as seen.
func (c *Context) Celebrate(ctx context.Context) ([]models.Achievement, error) {
	habits, err := c.Store.FetchHabits(ctx, c.Scope)
	if err != nil {
		return nil, err
	}
	completions, err := c.Store.FetchCompletions(ctx, c.Scope, 0)
	if err != nil {
		return nil, err
	}
	seenIDs, err := c.Store.GetCelebratedAchievements(ctx, c.Scope)
	if err != nil {
		return nil, err
	}

	unlocked := achievements.Evaluate(achievements.StatsFrom(habits, completions, c.Location()))
	fresh := achievements.NewUnlocks(unlocked, achievements.NewSeenSet(seenIDs...))
	if len(fresh) == 0 {
		return nil, nil
	}

	ids := make([]string, len(fresh))
	for i, a := range fresh {
		ids[i] = a.ID
	}
	if err := c.Store.MarkAchievementsCelebrated(ctx, c.Scope, ids); err != nil {
		return nil, err
	}
	return fresh, nil
}
