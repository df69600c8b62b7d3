package storage

import (
	"context"
	"errors"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrScope is returned when an untrusted scope carries no user.
	ErrScope = errors.New("a user id is required for untrusted access")

	// ErrForbidden is returned when a write targets another user's row.
	ErrForbidden = errors.New("row belongs to another user")
)

// Scope identifies whose data a call may touch. Untrusted scopes are always
// limited to UserID; trusted scopes with an empty UserID span every user.
type Scope struct {
	UserID  string
	Trusted bool
}

// UserScope returns an untrusted scope for one user.
func UserScope(userID string) Scope {
	return Scope{UserID: userID}
}

// Validate rejects scopes that would read across users without trust.
func (s Scope) Validate() error {
	if s.UserID == "" && !s.Trusted {
		return ErrScope
	}
	return nil
}

// Owns checks that a row owned by userID may be written under this scope.
func (s Scope) Owns(userID string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if userID == "" {
		return ErrScope
	}
	if s.UserID != "" && s.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// AllUsers reports whether the scope spans every user.
func (s Scope) AllUsers() bool {
	return s.Trusted && s.UserID == ""
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Habits
	AddHabit(ctx context.Context, scope Scope, habit models.Habit) error
	GetHabit(ctx context.Context, scope Scope, id string) (models.Habit, error)
	GetHabitByName(ctx context.Context, scope Scope, name string) (models.Habit, error)
	GetAllHabits(ctx context.Context, scope Scope, includeArchived, includeDeleted bool) ([]models.Habit, error)
	ArchiveHabit(ctx context.Context, scope Scope, id string) error
	DeleteHabit(ctx context.Context, scope Scope, id string) error
	RestoreHabit(ctx context.Context, scope Scope, id string) error

	// Completions
	AddCompletion(ctx context.Context, scope Scope, completion models.Completion) error
	GetCompletion(ctx context.Context, scope Scope, habitID, day string) (models.Completion, error)
	// UpdateCompletionDetails changes the only editable fields of a completion.
	UpdateCompletionDetails(ctx context.Context, scope Scope, id, note string, mood models.Mood) error
	DeleteCompletion(ctx context.Context, scope Scope, id string) error

	// Insight data access. FetchHabits returns active habits only;
	// FetchCompletions returns the newest limit completions of active habits, or
	// all of them when limit <= 0.
	FetchHabits(ctx context.Context, scope Scope) ([]models.Habit, error)
	FetchCompletions(ctx context.Context, scope Scope, limit int) ([]models.Completion, error)

	// Insight records
	GetInsightRecord(ctx context.Context, scope Scope, insightType models.InsightType) (models.InsightRecord, error)
	// UpsertInsightRecord writes the record for (UserID, Type) unless the stored
	// row was generated later; written is false in that case.
	UpsertInsightRecord(ctx context.Context, scope Scope, record models.InsightRecord) (written bool, err error)

	// Celebrated achievements
	GetCelebratedAchievements(ctx context.Context, scope Scope) ([]string, error)
	MarkAchievementsCelebrated(ctx context.Context, scope Scope, ids []string) error

	// Utils
	GetConfigPath() string
}
