package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

// Decode parses generated JSON into the typed payload for t and checks the
// fields callers rely on. Missing lists decode as empty.
func Decode(t models.InsightType, data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}

	switch t {
	case models.InsightWeeklySummary:
		if err := require(fields, "headline", "overallScore"); err != nil {
			return nil, err
		}
		var v models.WeeklySummary
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if v.OverallScore < 0 || v.OverallScore > 100 {
			return nil, fmt.Errorf("overallScore %d out of range", v.OverallScore)
		}
		if v.Headline == "" {
			return nil, errors.New("headline is empty")
		}
		if v.Wins == nil {
			v.Wins = []string{}
		}
		if v.Improvements == nil {
			v.Improvements = []string{}
		}
		return &v, nil

	case models.InsightCorrelations:
		if err := require(fields, "trendAnalysis"); err != nil {
			return nil, err
		}
		var v models.Correlations
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		for _, p := range v.HabitPairs {
			if p.Correlation < -1 || p.Correlation > 1 {
				return nil, fmt.Errorf("correlation %v for %s/%s out of range", p.Correlation, p.HabitA, p.HabitB)
			}
		}
		if v.HabitPairs == nil {
			v.HabitPairs = []models.HabitPair{}
		}
		if v.MoodCorrelations == nil {
			v.MoodCorrelations = []models.MoodCorrelation{}
		}
		return &v, nil

	case models.InsightRecommendations:
		_, a := fields["optimalTimes"]
		_, b := fields["habitStacking"]
		_, c := fields["atRiskHabits"]
		if !a && !b && !c {
			return nil, errors.New("no recommendation lists present")
		}
		var v models.Recommendations
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if v.OptimalTimes == nil {
			v.OptimalTimes = []models.OptimalTime{}
		}
		if v.HabitStacking == nil {
			v.HabitStacking = []models.HabitStack{}
		}
		if v.AtRiskHabits == nil {
			v.AtRiskHabits = []models.AtRiskHabit{}
		}
		return &v, nil
	}

	return nil, fmt.Errorf("unknown insight type %q", t)
}

func require(fields map[string]json.RawMessage, keys ...string) error {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}
