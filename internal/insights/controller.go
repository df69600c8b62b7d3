// Package insights turns a user's habit data into cached, model-generated
// insights. The controller decides per (user, type) whether a stored record can
// be served or a new generation is needed, and persists successful results.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/logger"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

// DataSource supplies the raw rows insights are computed from.
type DataSource interface {
	FetchHabits(ctx context.Context, scope storage.Scope) ([]models.Habit, error)
	FetchCompletions(ctx context.Context, scope storage.Scope, limit int) ([]models.Completion, error)
}

// RecordStore persists at most one record per (user, type). GetInsightRecord
// returns storage.ErrNotFound when nothing is cached.
type RecordStore interface {
	GetInsightRecord(ctx context.Context, scope storage.Scope, insightType models.InsightType) (models.InsightRecord, error)
	UpsertInsightRecord(ctx context.Context, scope storage.Scope, record models.InsightRecord) (written bool, err error)
}

// Generation is the raw output of one model call.
type Generation struct {
	Data       json.RawMessage
	TokensUsed int
}

// Generator produces structured JSON from a system and a user prompt. It
// returns ErrNotConfigured when it cannot run at all.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error)
}

type Config struct {
	TTL             time.Duration
	RateLimitWindow time.Duration
	GenerateTimeout time.Duration
	MinDays         int

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = constants.DefaultInsightTTL
	}
	if c.RateLimitWindow < 0 {
		c.RateLimitWindow = 0
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = constants.DefaultGenerateTimeout
	}
	if c.MinDays < 0 {
		c.MinDays = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// DefaultConfig returns the stock cache settings.
func DefaultConfig() Config {
	return Config{
		TTL:             constants.DefaultInsightTTL,
		RateLimitWindow: constants.DefaultInsightRateLimit,
		GenerateTimeout: constants.DefaultGenerateTimeout,
		MinDays:         constants.DefaultInsightMinDays,
	}
}

// Result is an insight ready for display.
type Result struct {
	Type        models.InsightType
	Content     any // *models.WeeklySummary, *models.Correlations or *models.Recommendations
	Cached      bool
	GeneratedAt time.Time
	ExpiresAt   time.Time
	TokensUsed  int
	DataHash    string
}

// Outcome pairs an insight type with its result or failure in a batch.
type Outcome struct {
	Type   models.InsightType
	Result *Result
	Err    error
}

type Controller struct {
	data    DataSource
	records RecordStore
	gen     Generator
	cfg     Config
}

func NewController(data DataSource, records RecordStore, gen Generator, cfg Config) *Controller {
	return &Controller{
		data:    data,
		records: records,
		gen:     gen,
		cfg:     cfg.withDefaults(),
	}
}

func (c *Controller) componentLog() *log.Logger {
	return logger.With("component", "insights")
}

// GetInsight returns the insight of type t for the scope's user, serving the
// cached record while it is unexpired and the input data is unchanged.
// forceRefresh skips the cache but is rate limited per record.
func (c *Controller) GetInsight(ctx context.Context, scope storage.Scope, t models.InsightType, forceRefresh bool) (*Result, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown insight type %q", t)
	}
	if scope.UserID == "" {
		return nil, storage.ErrScope
	}

	habits, err := c.data.FetchHabits(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	completions, err := c.data.FetchCompletions(ctx, scope, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completions: %w", err)
	}
	habits, completions = models.ActiveOnly(habits, completions)

	if s := CheckSufficiency(habits, completions, c.cfg.MinDays); !s.HasEnough {
		return nil, &InsufficientDataError{Message: s.Message, DaysNeeded: s.DaysNeeded}
	}

	hash, err := DataHash(habits, RecentCompletions(completions, constants.InsightHashCompletionSpan))
	if err != nil {
		return nil, err
	}

	existing, err := c.load(ctx, scope, t)
	if err != nil {
		return nil, err
	}

	now := c.cfg.Now()
	if existing != nil && !forceRefresh && now.Before(existing.ExpiresAt) && existing.DataHash == hash {
		res, err := resultFrom(*existing, true)
		if err == nil {
			return res, nil
		}
		c.componentLog().Warn("cached insight unreadable, regenerating", "type", t, "user", scope.UserID, "error", err)
	}

	if existing != nil && forceRefresh {
		retryAfter := existing.GeneratedAt.Add(c.cfg.RateLimitWindow)
		if now.Before(retryAfter) {
			return nil, &RateLimitedError{Type: t, RetryAfter: retryAfter}
		}
	}

	return c.regenerate(ctx, scope, t, habits, completions, hash)
}

// GetAll fetches every insight type concurrently. One type failing does not
// affect the others.
func (c *Controller) GetAll(ctx context.Context, scope storage.Scope, forceRefresh bool) []Outcome {
	outcomes := make([]Outcome, len(models.InsightTypes))

	var g errgroup.Group
	for i, t := range models.InsightTypes {
		g.Go(func() error {
			res, err := c.GetInsight(ctx, scope, t, forceRefresh)
			outcomes[i] = Outcome{Type: t, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Cached returns the last stored record for t regardless of age or input
// changes, or storage.ErrNotFound.
func (c *Controller) Cached(ctx context.Context, scope storage.Scope, t models.InsightType) (*Result, error) {
	rec, err := c.records.GetInsightRecord(ctx, scope, t)
	if err != nil {
		return nil, err
	}
	return resultFrom(rec, true)
}

func (c *Controller) load(ctx context.Context, scope storage.Scope, t models.InsightType) (*models.InsightRecord, error) {
	rec, err := c.records.GetInsightRecord(ctx, scope, t)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached insight: %w", err)
	}
	return &rec, nil
}

func (c *Controller) regenerate(ctx context.Context, scope storage.Scope, t models.InsightType, habits []models.Habit, completions []models.Completion, hash string) (*Result, error) {
	l := c.componentLog().With("type", t, "user", scope.UserID)

	if c.gen == nil {
		l.Error("no insight generator wired")
		return nil, ErrServiceUnavailable
	}

	summary := Summarize(habits, completions, c.cfg.Now())

	genCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	out, err := c.gen.Generate(genCtx, SystemPrompt(t), PromptText(summary))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			l.Error("insight generator not configured", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		l.Error("insight generation failed", "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	content, err := Decode(t, out.Data)
	if err != nil {
		l.Error("malformed insight output", "error", err, "bytes", len(out.Data))
		return nil, &MalformedOutputError{Type: t, Err: err}
	}

	normalized, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight: %w", err)
	}

	generatedAt := c.cfg.Now()
	rec := models.InsightRecord{
		ID:          ulid.Make().String(),
		UserID:      scope.UserID,
		Type:        t,
		Content:     normalized,
		GeneratedAt: generatedAt,
		ExpiresAt:   generatedAt.Add(c.cfg.TTL),
		DataHash:    hash,
		TokensUsed:  out.TokensUsed,
	}

	// The write is detached so an abandoned caller cannot interrupt it halfway.
	written, err := c.records.UpsertInsightRecord(context.WithoutCancel(ctx), scope, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save insight: %w", err)
	}
	if !written {
		// A concurrent generation stored a newer record; serve that one.
		l.Debug("newer insight already stored, discarding generation", "id", rec.ID)
		stored, err := c.load(ctx, scope, t)
		if err == nil && stored != nil {
			if res, err := resultFrom(*stored, true); err == nil {
				return res, nil
			}
		}
		l.Warn("stored insight unavailable after skipped write", "error", err)
	}
	l.Debug("insight generated", "id", rec.ID, "tokens", rec.TokensUsed, "elapsed", time.Since(start), "stored", written)

	return &Result{
		Type:        t,
		Content:     content,
		Cached:      false,
		GeneratedAt: rec.GeneratedAt,
		ExpiresAt:   rec.ExpiresAt,
		TokensUsed:  rec.TokensUsed,
		DataHash:    hash,
	}, nil
}

func resultFrom(rec models.InsightRecord, cached bool) (*Result, error) {
	content, err := Decode(rec.Type, rec.Content)
	if err != nil {
		return nil, &MalformedOutputError{Type: rec.Type, Err: err}
	}
	return &Result{
		Type:        rec.Type,
		Content:     content,
		Cached:      cached,
		GeneratedAt: rec.GeneratedAt,
		ExpiresAt:   rec.ExpiresAt,
		TokensUsed:  rec.TokensUsed,
		DataHash:    rec.DataHash,
	}, nil
}
