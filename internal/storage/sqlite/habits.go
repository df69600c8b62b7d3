package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

const habitColumns = "id, user_id, name, category, frequency, created_at, archived_at, deleted_at"

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var frequency, createdAt string
	var archivedAt, deletedAt sql.NullString

	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Category, &frequency, &createdAt, &archivedAt, &deletedAt); err != nil {
		return models.Habit{}, err
	}
	h.Frequency = models.Frequency(frequency)

	var err error
	if h.CreatedAt, err = storage.ParseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.ArchivedAt, err = storage.ParseNullTime("archived_at", archivedAt); err != nil {
		return models.Habit{}, err
	}
	if h.DeletedAt, err = storage.ParseNullTime("deleted_at", deletedAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, scope storage.Scope, habit models.Habit) error {
	if err := scope.Owns(habit.UserID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, name, category, frequency, created_at, archived_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			frequency = excluded.frequency,
			archived_at = excluded.archived_at,
			deleted_at = excluded.deleted_at
		WHERE habits.user_id = excluded.user_id`,
		habit.ID, habit.UserID, habit.Name, habit.Category, string(habit.Frequency),
		storage.FormatTime(habit.CreatedAt), storage.NullTime(habit.ArchivedAt), storage.NullTime(habit.DeletedAt))
	return err
}

func (s *Store) getHabitBy(ctx context.Context, scope storage.Scope, column, value string) (models.Habit, error) {
	if err := scope.Validate(); err != nil {
		return models.Habit{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE `+column+` = ?1 AND (?2 = '' OR user_id = ?2) AND deleted_at IS NULL`,
		value, scope.UserID)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", value, storage.ErrNotFound)
	}
	return h, err
}

func (s *Store) GetHabit(ctx context.Context, scope storage.Scope, id string) (models.Habit, error) {
	return s.getHabitBy(ctx, scope, "id", id)
}

func (s *Store) GetHabitByName(ctx context.Context, scope storage.Scope, name string) (models.Habit, error) {
	return s.getHabitBy(ctx, scope, "name", name)
}

func (s *Store) GetAllHabits(ctx context.Context, scope storage.Scope, includeArchived, includeDeleted bool) ([]models.Habit, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	query := "SELECT " + habitColumns + " FROM habits WHERE (?1 = '' OR user_id = ?1)"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	if !includeArchived {
		query += " AND archived_at IS NULL"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, scope.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// FetchHabits returns the scope's active habits.
func (s *Store) FetchHabits(ctx context.Context, scope storage.Scope) ([]models.Habit, error) {
	return s.GetAllHabits(ctx, scope, false, false)
}

func (s *Store) updateHabitState(ctx context.Context, scope storage.Scope, id, failure, query string, args ...any) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("habit %s %s: %w", id, failure, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ArchiveHabit(ctx context.Context, scope storage.Scope, id string) error {
	return s.updateHabitState(ctx, scope, id, "not found or already archived", `
		UPDATE habits SET archived_at = ?1
		WHERE id = ?2 AND (?3 = '' OR user_id = ?3) AND deleted_at IS NULL AND archived_at IS NULL`,
		storage.FormatTime(time.Now()), id, scope.UserID)
}

func (s *Store) DeleteHabit(ctx context.Context, scope storage.Scope, id string) error {
	return s.updateHabitState(ctx, scope, id, "not found or already deleted", `
		UPDATE habits SET deleted_at = ?1
		WHERE id = ?2 AND (?3 = '' OR user_id = ?3) AND deleted_at IS NULL`,
		storage.FormatTime(time.Now()), id, scope.UserID)
}

func (s *Store) RestoreHabit(ctx context.Context, scope storage.Scope, id string) error {
	return s.updateHabitState(ctx, scope, id, "not found or not deleted", `
		UPDATE habits SET deleted_at = NULL
		WHERE id = ?1 AND (?2 = '' OR user_id = ?2) AND deleted_at IS NOT NULL`,
		id, scope.UserID)
}
