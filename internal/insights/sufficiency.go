package insights

import (
	"fmt"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

// Sufficiency is the outcome of the data gate that runs before any generation.
type Sufficiency struct {
	HasEnough  bool
	Message    string
	DaysNeeded int
}

// CheckSufficiency requires at least one habit and minDays distinct completion days.
func CheckSufficiency(habits []models.Habit, completions []models.Completion, minDays int) Sufficiency {
	if len(habits) == 0 {
		return Sufficiency{Message: "no habits yet; add a habit to start getting insights"}
	}

	days := make(map[string]struct{})
	for _, c := range completions {
		days[c.Date().Format(constants.DateFormat)] = struct{}{}
	}

	if len(days) < minDays {
		needed := minDays - len(days)
		unit := "days"
		if needed == 1 {
			unit = "day"
		}
		return Sufficiency{
			Message:    fmt.Sprintf("keep tracking for %d more %s to unlock insights", needed, unit),
			DaysNeeded: needed,
		}
	}

	return Sufficiency{HasEnough: true}
}
