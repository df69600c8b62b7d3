package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aandrew-el/habit-tracker-sub000/internal/cli"
	"github.com/aandrew-el/habit-tracker-sub000/internal/keyring"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/postgres"
)

// KeyringSetCmd stores the insight API key, or with --connection a PostgreSQL
// connection string, in the OS keyring.
type KeyringSetCmd struct {
	Secret     string `arg:"" help:"API key, or connection string with --connection."`
	Connection bool   `help:"Store a PostgreSQL connection string instead of the API key."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !cmd.Connection {
		if err := keyring.SetAPIKey(strings.TrimSpace(cmd.Secret)); err != nil {
			return err
		}
		ctx.Printf("%s API key stored in OS keyring\n", cli.SuccessStyle.Render("✓"))
		return nil
	}

	if !strings.HasPrefix(cmd.Secret, "postgres://") &&
		!strings.HasPrefix(cmd.Secret, "postgresql://") &&
		!strings.Contains(cmd.Secret, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(cmd.Secret); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so an embedded password is allowed here.
		ctx.Println(cli.WarningStyle.Render("Warning: connection string contains embedded credentials."))
		ctx.Println("  It will be stored as-is in the OS keyring. Use .pgpass or PGPASSWORD to keep passwords separate.")
	}

	if err := keyring.SetConnectionString(cmd.Secret); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Printf("%s Connection string stored in OS keyring\n", cli.SuccessStyle.Render("✓"))
	ctx.Println("  habitkit uses it when no --db flag or HABITKIT_DB is set")
	return nil
}

type KeyringDeleteCmd struct {
	Connection bool `help:"Delete the stored connection string instead of the API key."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	what, del := "API key", keyring.DeleteAPIKey
	if cmd.Connection {
		what, del = "connection string", keyring.DeleteConnectionString
	}

	if err := del(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", what)
		}
		return err
	}
	ctx.Printf("%s %s deleted from OS keyring\n", cli.SuccessStyle.Render("✓"), what)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring and what it holds.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println(cli.DangerStyle.Render("OS keyring is not available on this system"))
		return errors.New("keyring unavailable")
	}
	ctx.Printf("%s OS keyring is available\n", cli.SuccessStyle.Render("✓"))

	if _, err := keyring.GetAPIKey(); err == nil {
		ctx.Printf("%s API key is stored\n", cli.SuccessStyle.Render("✓"))
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No API key stored")
	}

	if connStr, err := keyring.GetConnectionString(); err == nil {
		ctx.Printf("%s Connection string is stored: %s\n", cli.SuccessStyle.Render("✓"), maskPassword(connStr))
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No connection string stored")
	}
	return nil
}

// maskPassword masks passwords in connection strings for display.
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		remaining := connStr[idx+3:]
		// The last @ separates user info from host; passwords may contain @.
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + remaining[atIdx:]
			}
		}
		return connStr
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
