package backup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage/sqlite"
)

// TestIntegrationBackupRestoreWorkflow backs up a real habit store, loses a
// habit and gets it back from the backup.
func TestIntegrationBackupRestoreWorkflow(t *testing.T) {
	ctx := context.Background()
	scope := storage.UserScope("u1")
	dbPath := filepath.Join(t.TempDir(), "habitkit.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	habit := models.Habit{
		ID:        "h1",
		UserID:    "u1",
		Name:      "Read",
		Frequency: models.FrequencyDaily,
		CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := store.AddHabit(ctx, scope, habit); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	store.Close()

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	store = sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.DeleteHabit(ctx, scope, "h1"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if _, err := store.FetchHabits(ctx, scope); err != nil {
		t.Fatalf("FetchHabits failed: %v", err)
	}
	store.Close()

	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	store = sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load after restore failed: %v", err)
	}
	defer store.Close()

	habits, err := store.FetchHabits(ctx, scope)
	if err != nil {
		t.Fatalf("FetchHabits failed: %v", err)
	}
	if len(habits) != 1 || habits[0].Name != "Read" {
		t.Errorf("restored habits = %+v", habits)
	}
	if _, err := store.GetHabitByName(ctx, scope, "Missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
