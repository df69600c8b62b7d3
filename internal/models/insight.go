package models

import (
	"encoding/json"
	"time"
)

type InsightType string

const (
	InsightWeeklySummary   InsightType = "weekly_summary"
	InsightCorrelations    InsightType = "correlations"
	InsightRecommendations InsightType = "recommendations"
)

// InsightTypes lists every insight type in the order callers display them.
var InsightTypes = []InsightType{InsightWeeklySummary, InsightCorrelations, InsightRecommendations}

func (t InsightType) Valid() bool {
	for _, known := range InsightTypes {
		if t == known {
			return true
		}
	}
	return false
}

// InsightRecord is the cached result of one generation. There is at most one
// record per (UserID, Type).
type InsightRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        InsightType     `json:"insight_type"`
	Content     json.RawMessage `json:"content"`
	GeneratedAt time.Time       `json:"generated_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	DataHash    string          `json:"data_hash"`
	TokensUsed  int             `json:"tokens_used"`
}

type WeeklySummary struct {
	OverallScore int      `json:"overallScore"`
	Headline     string   `json:"headline"`
	Wins         []string `json:"wins"`
	Improvements []string `json:"improvements"`
	Advice       string   `json:"advice"`
}

type HabitPair struct {
	HabitA      string  `json:"habitA"`
	HabitB      string  `json:"habitB"`
	Correlation float64 `json:"correlation"`
	Insight     string  `json:"insight"`
}

type MoodCorrelation struct {
	Habit   string `json:"habit"`
	Effect  string `json:"effect"` // positive, negative, neutral
	Insight string `json:"insight"`
}

type Correlations struct {
	HabitPairs       []HabitPair       `json:"habitPairs"`
	MoodCorrelations []MoodCorrelation `json:"moodCorrelations"`
	TrendAnalysis    string            `json:"trendAnalysis"`
}

type OptimalTime struct {
	Habit         string `json:"habit"`
	SuggestedTime string `json:"suggestedTime"`
	Reason        string `json:"reason"`
}

type HabitStack struct {
	Anchor   string `json:"anchor"`
	NewHabit string `json:"newHabit"`
	Reason   string `json:"reason"`
}

type AtRiskHabit struct {
	Habit      string `json:"habit"`
	RiskLevel  string `json:"riskLevel"` // low, medium, high
	Suggestion string `json:"suggestion"`
}

type Recommendations struct {
	OptimalTimes  []OptimalTime `json:"optimalTimes"`
	HabitStacking []HabitStack  `json:"habitStacking"`
	AtRiskHabits  []AtRiskHabit `json:"atRiskHabits"`
}
