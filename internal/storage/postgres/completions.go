package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

const completionColumns = "c.id, c.user_id, c.habit_id, c.day, c.completed_at, c.note, c.mood, c.created_at, c.updated_at, c.deleted_at"

func scanCompletion(row scanner) (models.Completion, error) {
	var c models.Completion
	var mood, completedAt, createdAt, updatedAt string
	var deletedAt sql.NullString

	if err := row.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Day, &completedAt, &c.Note, &mood, &createdAt, &updatedAt, &deletedAt); err != nil {
		return models.Completion{}, err
	}
	c.Mood = models.Mood(mood)

	var err error
	if c.CompletedAt, err = storage.ParseTime("completed_at", completedAt); err != nil {
		return models.Completion{}, err
	}
	if c.CreatedAt, err = storage.ParseTime("created_at", createdAt); err != nil {
		return models.Completion{}, err
	}
	if c.UpdatedAt, err = storage.ParseTime("updated_at", updatedAt); err != nil {
		return models.Completion{}, err
	}
	if c.DeletedAt, err = storage.ParseNullTime("deleted_at", deletedAt); err != nil {
		return models.Completion{}, err
	}
	return c, nil
}

func (s *Store) AddCompletion(ctx context.Context, scope storage.Scope, c models.Completion) error {
	if err := scope.Owns(c.UserID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completions (id, user_id, habit_id, day, completed_at, note, mood, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.HabitID, c.Day, storage.FormatTime(c.CompletedAt), c.Note, string(c.Mood),
		storage.FormatTime(c.CreatedAt), storage.FormatTime(c.UpdatedAt), storage.NullTime(c.DeletedAt))
	return err
}

func (s *Store) GetCompletion(ctx context.Context, scope storage.Scope, habitID, day string) (models.Completion, error) {
	if err := scope.Validate(); err != nil {
		return models.Completion{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+completionColumns+`
		FROM completions c
		WHERE c.habit_id = $1 AND c.day = $2 AND ($3 = '' OR c.user_id = $3) AND c.deleted_at IS NULL`,
		habitID, day, scope.UserID)

	c, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Completion{}, fmt.Errorf("completion for %s on %s: %w", habitID, day, storage.ErrNotFound)
	}
	return c, err
}

func (s *Store) UpdateCompletionDetails(ctx context.Context, scope storage.Scope, id, note string, mood models.Mood) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE completions SET note = $1, mood = $2, updated_at = $3
		WHERE id = $4 AND ($5 = '' OR user_id = $5) AND deleted_at IS NULL`,
		note, string(mood), storage.FormatTime(time.Now()), id, scope.UserID)
	if err != nil {
		return err
	}
	return expectOne(result, "completion", id)
}

func (s *Store) DeleteCompletion(ctx context.Context, scope storage.Scope, id string) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE completions SET deleted_at = $1
		WHERE id = $2 AND ($3 = '' OR user_id = $3) AND deleted_at IS NULL`,
		storage.FormatTime(time.Now()), id, scope.UserID)
	if err != nil {
		return err
	}
	return expectOne(result, "completion", id)
}

// FetchCompletions returns completions of active habits, newest first.
func (s *Store) FetchCompletions(ctx context.Context, scope storage.Scope, limit int) ([]models.Completion, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + completionColumns + `
		FROM completions c
		JOIN habits h ON h.id = c.habit_id
		WHERE ($1 = '' OR c.user_id = $1) AND c.deleted_at IS NULL
			AND h.deleted_at IS NULL AND h.archived_at IS NULL
		ORDER BY c.completed_at DESC, c.id DESC`
	args := []any{scope.UserID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func expectOne(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
