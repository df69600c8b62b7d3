package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

func (s *Store) GetCelebratedAchievements(ctx context.Context, scope storage.Scope) ([]string, error) {
	if err := scope.Owns(scope.UserID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT achievement_id FROM celebrated_achievements
		WHERE user_id = ? ORDER BY achievement_id`, scope.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) MarkAchievementsCelebrated(ctx context.Context, scope storage.Scope, ids []string) error {
	if err := scope.Owns(scope.UserID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO celebrated_achievements (user_id, achievement_id, celebrated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := storage.FormatTime(time.Now())
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, scope.UserID, id, now); err != nil {
			return fmt.Errorf("failed to mark %s: %w", id, err)
		}
	}
	return tx.Commit()
}
