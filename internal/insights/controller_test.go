package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

type fakeData struct {
	habits      []models.Habit
	completions []models.Completion
}

func (f *fakeData) FetchHabits(ctx context.Context, scope storage.Scope) ([]models.Habit, error) {
	return f.habits, nil
}

func (f *fakeData) FetchCompletions(ctx context.Context, scope storage.Scope, limit int) ([]models.Completion, error) {
	return f.completions, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[string]models.InsightRecord
	upserts int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: make(map[string]models.InsightRecord)}
}

func recordKey(user string, t models.InsightType) string { return user + "/" + string(t) }

func (f *fakeRecords) GetInsightRecord(ctx context.Context, scope storage.Scope, t models.InsightType) (models.InsightRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[recordKey(scope.UserID, t)]
	if !ok {
		return models.InsightRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRecords) UpsertInsightRecord(ctx context.Context, scope storage.Scope, rec models.InsightRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := recordKey(rec.UserID, rec.Type)
	if existing, ok := f.records[key]; ok && existing.GeneratedAt.After(rec.GeneratedAt) {
		return false, nil
	}
	f.records[key] = rec
	return true, nil
}

var fakePayloads = map[models.InsightType]string{
	models.InsightWeeklySummary:   `{"overallScore": 80, "headline": "Strong week", "wins": ["Read 3 days"], "improvements": [], "advice": "Keep it up"}`,
	models.InsightCorrelations:    `{"habitPairs": [], "moodCorrelations": [{"habit": "Run", "effect": "positive", "insight": "Runs lift mood"}], "trendAnalysis": "Improving"}`,
	models.InsightRecommendations: `{"optimalTimes": [], "habitStacking": [], "atRiskHabits": [{"habit": "Yoga", "riskLevel": "high", "suggestion": "Shorter sessions"}]}`,
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	err      error
	failFor  models.InsightType
	raw      string
	generate func(ctx context.Context) error
}

func (g *fakeGenerator) Generate(ctx context.Context, system, user string) (Generation, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, user)
	g.mu.Unlock()

	if g.generate != nil {
		if err := g.generate(ctx); err != nil {
			return Generation{}, err
		}
	}
	if g.err != nil {
		return Generation{}, g.err
	}
	for _, t := range models.InsightTypes {
		if SystemPrompt(t) != system {
			continue
		}
		if t == g.failFor {
			return Generation{}, errors.New("upstream 502")
		}
		if g.raw != "" {
			return Generation{Data: json.RawMessage(g.raw), TokensUsed: 10}, nil
		}
		return Generation{Data: json.RawMessage(fakePayloads[t]), TokensUsed: 321}, nil
	}
	return Generation{}, fmt.Errorf("unexpected system prompt")
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type harness struct {
	data    *fakeData
	records *fakeRecords
	gen     *fakeGenerator
	clock   *clock
	ctrl    *Controller
	scope   storage.Scope
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	habits, completions := formatterFixture()
	h := &harness{
		data:    &fakeData{habits: habits, completions: completions},
		records: newFakeRecords(),
		gen:     &fakeGenerator{},
		clock:   &clock{now: formatterNow},
		scope:   storage.UserScope("u1"),
	}
	cfg := DefaultConfig()
	cfg.Now = h.clock.Now
	h.ctrl = NewController(h.data, h.records, h.gen, cfg)
	return h
}

func TestGetInsight_CacheRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if first.Cached {
		t.Error("first call should not be cached")
	}
	if !first.ExpiresAt.Equal(formatterNow.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+24h", first.ExpiresAt)
	}
	summary, ok := first.Content.(*models.WeeklySummary)
	if !ok || summary.Headline != "Strong week" {
		t.Fatalf("unexpected content: %#v", first.Content)
	}

	h.clock.now = h.clock.now.Add(23 * time.Hour)
	second, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if !second.Cached {
		t.Error("second call should be served from cache")
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) || second.DataHash != first.DataHash {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
	if h.gen.callCount() != 1 {
		t.Errorf("expected 1 generation, got %d", h.gen.callCount())
	}
}

func TestGetInsight_ExpiredRegenerates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightCorrelations, false); err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	h.clock.now = h.clock.now.Add(24 * time.Hour)

	res, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightCorrelations, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if res.Cached || h.gen.callCount() != 2 {
		t.Errorf("expected regeneration at expiry, cached=%v calls=%d", res.Cached, h.gen.callCount())
	}
}

func TestGetInsight_MoodChangeInvalidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}

	// Data changes inside the rate-limit window still regenerate when not forced.
	h.clock.now = h.clock.now.Add(time.Minute)
	h.data.completions[0].Mood = models.MoodGreat

	second, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if second.Cached {
		t.Error("changed mood should invalidate the cache")
	}
	if second.DataHash == first.DataHash {
		t.Error("hash should change when a mood changes")
	}
	if h.gen.callCount() != 2 {
		t.Errorf("expected 2 generations, got %d", h.gen.callCount())
	}
}

func TestGetInsight_ForcedRefreshRateLimited(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightRecommendations, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}

	h.clock.now = h.clock.now.Add(30 * time.Minute)
	_, err = h.ctrl.GetInsight(ctx, h.scope, models.InsightRecommendations, true)

	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if want := first.GeneratedAt.Add(time.Hour); !limited.RetryAfter.Equal(want) {
		t.Errorf("RetryAfter = %v, want %v", limited.RetryAfter, want)
	}
	if h.gen.callCount() != 1 {
		t.Errorf("rate-limited refresh must not generate, calls=%d", h.gen.callCount())
	}

	h.clock.now = first.GeneratedAt.Add(time.Hour)
	res, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightRecommendations, true)
	if err != nil {
		t.Fatalf("forced refresh after the window failed: %v", err)
	}
	if res.Cached || h.gen.callCount() != 2 {
		t.Errorf("expected a fresh generation, cached=%v calls=%d", res.Cached, h.gen.callCount())
	}
}

func TestGetInsight_ForcedWithoutRecord(t *testing.T) {
	h := newHarness(t)
	res, err := h.ctrl.GetInsight(context.Background(), h.scope, models.InsightWeeklySummary, true)
	if err != nil {
		t.Fatalf("forced refresh with empty cache failed: %v", err)
	}
	if res.Cached {
		t.Error("expected a generated result")
	}
}

func TestGetInsight_InsufficientData(t *testing.T) {
	h := newHarness(t)
	h.data.completions = h.data.completions[:2]

	_, err := h.ctrl.GetInsight(context.Background(), h.scope, models.InsightWeeklySummary, false)

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.DaysNeeded != 1 {
		t.Errorf("DaysNeeded = %d, want 1", insufficient.DaysNeeded)
	}
	if h.gen.callCount() != 0 || h.records.upserts != 0 {
		t.Error("insufficient data must not reach generation or storage")
	}
}

func TestGetInsight_ServiceUnavailable(t *testing.T) {
	h := newHarness(t)
	h.gen.err = fmt.Errorf("no api key: %w", ErrNotConfigured)

	_, err := h.ctrl.GetInsight(context.Background(), h.scope, models.InsightWeeklySummary, false)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Error("service unavailable must be distinguishable from generation failure")
	}
}

func TestGetInsight_NilGenerator(t *testing.T) {
	habits, completions := formatterFixture()
	ctrl := NewController(&fakeData{habits: habits, completions: completions}, newFakeRecords(), nil, DefaultConfig())

	_, err := ctrl.GetInsight(context.Background(), storage.UserScope("u1"), models.InsightWeeklySummary, false)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestGetInsight_FailureKeepsLastGoodRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}

	h.data.completions[1].Note = "changed"
	h.gen.err = errors.New("connection reset")

	_, err = h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}

	cached, err := h.ctrl.Cached(ctx, h.scope, models.InsightWeeklySummary)
	if err != nil {
		t.Fatalf("Cached failed: %v", err)
	}
	if cached.DataHash != first.DataHash || !cached.GeneratedAt.Equal(first.GeneratedAt) {
		t.Errorf("failed regeneration replaced the stored record: %+v", cached)
	}
	if h.records.upserts != 1 {
		t.Errorf("expected 1 upsert, got %d", h.records.upserts)
	}
}

func TestGetInsight_MalformedOutput(t *testing.T) {
	h := newHarness(t)
	h.gen.raw = `{"summary": "free text instead of the schema"}`

	_, err := h.ctrl.GetInsight(context.Background(), h.scope, models.InsightWeeklySummary, false)

	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
	if !errors.Is(err, ErrGenerationFailed) {
		t.Error("malformed output should propagate as a generation failure")
	}
	if h.records.upserts != 0 {
		t.Error("malformed output must not be stored")
	}
}

func TestGetInsight_Timeout(t *testing.T) {
	h := newHarness(t)
	cfg := DefaultConfig()
	cfg.Now = h.clock.Now
	cfg.GenerateTimeout = 20 * time.Millisecond
	h.ctrl = NewController(h.data, h.records, h.gen, cfg)

	h.gen.generate = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := h.ctrl.GetInsight(context.Background(), h.scope, models.InsightCorrelations, false)
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timed-out generation failure, got %v", err)
	}
}

func TestGetInsight_CallerCancelDoesNotAbortWrite(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The caller goes away after the generator has answered.
	h.gen.generate = func(context.Context) error {
		cancel()
		return nil
	}

	if _, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false); err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	if _, err := h.records.GetInsightRecord(context.Background(), h.scope, models.InsightWeeklySummary); err != nil {
		t.Errorf("record should be stored despite cancellation: %v", err)
	}
}

func TestGetAll_IndependentOutcomes(t *testing.T) {
	h := newHarness(t)
	h.gen.failFor = models.InsightCorrelations

	outcomes := h.ctrl.GetAll(context.Background(), h.scope, false)
	if len(outcomes) != len(models.InsightTypes) {
		t.Fatalf("expected %d outcomes, got %d", len(models.InsightTypes), len(outcomes))
	}

	for i, o := range outcomes {
		if o.Type != models.InsightTypes[i] {
			t.Errorf("outcome %d has type %s", i, o.Type)
		}
		if o.Type == models.InsightCorrelations {
			if !errors.Is(o.Err, ErrGenerationFailed) {
				t.Errorf("expected correlations to fail, got %v", o.Err)
			}
			continue
		}
		if o.Err != nil || o.Result == nil || o.Result.Cached {
			t.Errorf("%s: unexpected outcome %+v", o.Type, o)
		}
	}
	if h.records.upserts != 2 {
		t.Errorf("expected 2 stored records, got %d", h.records.upserts)
	}
}

func TestGetInsight_RequiresUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.GetInsight(context.Background(), storage.Scope{Trusted: true}, models.InsightWeeklySummary, false)
	if !errors.Is(err, storage.ErrScope) {
		t.Errorf("expected ErrScope, got %v", err)
	}
}

func TestCached_NotFound(t *testing.T) {
	h := newHarness(t)
	if _, err := h.ctrl.Cached(context.Background(), h.scope, models.InsightRecommendations); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetInsight_IgnoresArchivedHabits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	archived := formatterNow.AddDate(0, 0, -1)
	h.data.habits = append(h.data.habits, models.Habit{ID: "h9", Name: "Old", Frequency: models.FrequencyDaily, ArchivedAt: &archived})
	for i := 0; i < 5; i++ {
		day := formatterNow.AddDate(0, 0, -20-i).Format("2006-01-02")
		h.data.completions = append(h.data.completions, mkCompletion(fmt.Sprintf("old%d", i), "h9", day, 8, models.MoodGreat))
	}

	if _, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false); err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	prompt := h.gen.prompts[0]
	if !strings.Contains(prompt, "Total completions: 7\n") || strings.Contains(prompt, "Old") {
		t.Errorf("archived habit leaked into the prompt:\n%s", prompt)
	}

	// Only the archived habit has history: the gate must not open.
	only := newHarness(t)
	only.data.habits = []models.Habit{{ID: "h1", Name: "Read", Frequency: models.FrequencyDaily}, h.data.habits[len(h.data.habits)-1]}
	only.data.completions = h.data.completions[len(h.data.completions)-5:]
	_, err := only.ctrl.GetInsight(ctx, only.scope, models.InsightWeeklySummary, false)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) || insufficient.DaysNeeded != 3 {
		t.Errorf("expected insufficient data needing 3 days, got %v", err)
	}
}

func TestGetInsight_NewerStoredRecordWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	newer := models.InsightRecord{
		ID:          "racer",
		UserID:      "u1",
		Type:        models.InsightWeeklySummary,
		Content:     json.RawMessage(`{"overallScore": 55, "headline": "Written by a concurrent request", "wins": [], "improvements": [], "advice": ""}`),
		GeneratedAt: formatterNow.Add(time.Minute),
		ExpiresAt:   formatterNow.Add(time.Minute).Add(24 * time.Hour),
		DataHash:    "other",
	}
	h.gen.generate = func(ctx context.Context) error {
		h.records.mu.Lock()
		h.records.records[recordKey("u1", models.InsightWeeklySummary)] = newer
		h.records.mu.Unlock()
		return nil
	}

	res, err := h.ctrl.GetInsight(ctx, h.scope, models.InsightWeeklySummary, false)
	if err != nil {
		t.Fatalf("GetInsight failed: %v", err)
	}
	summary, ok := res.Content.(*models.WeeklySummary)
	if !ok || summary.Headline != "Written by a concurrent request" {
		t.Errorf("expected the stored newer record, got %#v", res.Content)
	}
	if !res.Cached || !res.GeneratedAt.Equal(newer.GeneratedAt) {
		t.Errorf("result should describe the stored record: %+v", res)
	}
}
