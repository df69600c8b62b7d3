package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli/backups"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli/habits"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli/progress"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli/reports"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli/system"
	"github.com/aandrew-el/habit-tracker-sub000/internal/config"
	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	apperrors "github.com/aandrew-el/habit-tracker-sub000/internal/errors"
	"github.com/aandrew-el/habit-tracker-sub000/internal/keyring"
	"github.com/aandrew-el/habit-tracker-sub000/internal/logger"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/postgres"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	DB      string `help:"SQLite file path or PostgreSQL connection string. PostgreSQL passwords must NOT be embedded; use .pgpass, PGPASSWORD or 'habitkit keyring set --connection'."`
	User    string `help:"User whose habits are read and written."`
	Debug   bool   `help:"Log debug output to stderr."`

	Init         system.InitCmd           `cmd:"" help:"Initialize habitkit storage."`
	Habit        habits.HabitCmd          `cmd:"" help:"Manage habits and completions."`
	Stats        progress.StatsCmd        `cmd:"" help:"Show streaks and completion rates." default:"1"`
	Achievements progress.AchievementsCmd `cmd:"" help:"Show achievements."`
	Insights     reports.InsightsCmd      `cmd:"" help:"Generate and show habit insights."`
	Backup       struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the API key or connection string in the OS keyring."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored secret."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracking with streaks, achievements and generated insights"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		apperrors.Fatalf("failed to load configuration: %v", err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.User != "" {
		cfg.UserID = CLI.User
	}
	if CLI.DB != "" {
		cfg.DB = config.ExpandHome(CLI.DB)
	}

	configDir := filepath.Dir(config.DefaultDBPath())
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	command := kctx.Command()
	if strings.HasPrefix(command, "keyring") {
		// Keyring commands never touch the database.
		apperrors.Fatal(kctx.Run(&cli.Context{Config: cfg}))
		return
	}

	store, err := openStore(cfg)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:  store,
		Config: cfg,
		Scope:  storage.UserScope(cfg.UserID),
	}

	if !strings.HasPrefix(command, "init") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	logger.Debug("running command", "command", command, "user", cfg.UserID, "store", store.GetConfigPath())
	if err := kctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

// openStore picks the backend: an explicit --db or HABITKIT_DB first, then a
// connection string from the keyring, then the default sqlite file.
func openStore(cfg *config.Config) (storage.Provider, error) {
	if cfg.DB != "" {
		if !config.IsPostgresURL(cfg.DB) {
			return sqlite.NewStore(cfg.DB), nil
		}
		if err := postgres.ValidateConnString(cfg.DB); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with 'habitkit keyring set --connection' or use .pgpass instead", err)
			}
			return nil, err
		}
		return postgres.New(cfg.DB), nil
	}

	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		// Credentials kept in the keyring are allowed.
		if err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, fmt.Errorf("connection string in keyring: %w", err)
		}
		cfg.DB = connStr
		return postgres.New(connStr), nil
	case !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("keyring unavailable, using default database", "error", err)
	}

	cfg.DB = config.DefaultDBPath()
	return sqlite.NewStore(cfg.DB), nil
}
