package system

import (
	"fmt"
	"os"

	"github.com/aandrew-el/habit-tracker-sub000/internal/backup"
	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Back up and delete the existing sqlite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitkit storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// reset removes an existing sqlite file. A failed backup aborts the reset so
// nothing is deleted without a copy.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return fmt.Errorf("--force is only supported for sqlite databases")
	}

	dbPath := ctx.Store.GetConfigPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	backupPath, err := backup.NewManager(dbPath).CreateBackup()
	if err != nil {
		return fmt.Errorf("refusing to delete database, backup failed: %w", err)
	}
	ctx.Printf("Backed up existing database to: %s\n", backupPath)

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}
