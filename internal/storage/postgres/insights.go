package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

func (s *Store) GetInsightRecord(ctx context.Context, scope storage.Scope, insightType models.InsightType) (models.InsightRecord, error) {
	if err := scope.Owns(scope.UserID); err != nil {
		return models.InsightRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, insight_type, content, generated_at, expires_at, data_hash, tokens_used
		FROM insight_records WHERE user_id = $1 AND insight_type = $2`,
		scope.UserID, string(insightType))

	var r models.InsightRecord
	var kind, content, generatedAt, expiresAt string
	err := row.Scan(&r.ID, &r.UserID, &kind, &content, &generatedAt, &expiresAt, &r.DataHash, &r.TokensUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InsightRecord{}, fmt.Errorf("%s insight: %w", insightType, storage.ErrNotFound)
	}
	if err != nil {
		return models.InsightRecord{}, err
	}

	r.Type = models.InsightType(kind)
	r.Content = []byte(content)
	if r.GeneratedAt, err = storage.ParseTime("generated_at", generatedAt); err != nil {
		return models.InsightRecord{}, err
	}
	if r.ExpiresAt, err = storage.ParseTime("expires_at", expiresAt); err != nil {
		return models.InsightRecord{}, err
	}
	return r, nil
}

// UpsertInsightRecord replaces the row for (user, type) in one statement. A row
// generated later than record is left untouched and written reports false.
func (s *Store) UpsertInsightRecord(ctx context.Context, scope storage.Scope, record models.InsightRecord) (bool, error) {
	if err := scope.Owns(record.UserID); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO insight_records (id, user_id, insight_type, content, generated_at, expires_at, data_hash, tokens_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(user_id, insight_type) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			generated_at = excluded.generated_at,
			expires_at = excluded.expires_at,
			data_hash = excluded.data_hash,
			tokens_used = excluded.tokens_used
		WHERE excluded.generated_at >= insight_records.generated_at`,
		record.ID, record.UserID, string(record.Type), string(record.Content),
		storage.FormatTime(record.GeneratedAt), storage.FormatTime(record.ExpiresAt),
		record.DataHash, record.TokensUsed)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
