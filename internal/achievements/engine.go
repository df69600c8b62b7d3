// Package achievements maps aggregate habit stats to unlocked achievements and
// progress. It keeps no state between calls; deciding which unlocks are new is
// done against a SeenSet supplied by the caller.
package achievements

import (
	"math"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

func (e entry) evaluate(stats Stats) (current int, unlocked bool) {
	if e.rule == nil {
		// Consistency tracking has no data source yet; these never unlock.
		return 0, false
	}
	current = e.rule(stats)
	return current, current >= e.achievement.Requirement
}

// Evaluate returns the unlocked achievements in catalog order.
func Evaluate(stats Stats) []models.Achievement {
	var unlocked []models.Achievement
	for _, e := range catalog {
		if _, ok := e.evaluate(stats); ok {
			unlocked = append(unlocked, e.achievement)
		}
	}
	return unlocked
}

// Progress reports every achievement with its counter and completion percentage.
func Progress(stats Stats) []models.AchievementProgress {
	out := make([]models.AchievementProgress, 0, len(catalog))
	for _, e := range catalog {
		current, unlocked := e.evaluate(stats)
		out = append(out, models.AchievementProgress{
			Achievement:        e.achievement,
			IsUnlocked:         unlocked,
			CurrentProgress:    current,
			ProgressPercentage: percentage(current, e.achievement.Requirement, unlocked),
		})
	}
	return out
}

// percentage never reports 100 for a locked achievement, so rounding cannot
// make 199/200 look complete.
func percentage(current, requirement int, unlocked bool) int {
	if unlocked {
		return 100
	}
	if requirement <= 0 || current <= 0 {
		return 0
	}
	pct := int(math.Round(float64(current) / float64(requirement) * 100))
	if pct > 99 {
		pct = 99
	}
	return pct
}
