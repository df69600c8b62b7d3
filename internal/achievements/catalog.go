package achievements

import "github.com/aandrew-el/habit-tracker-sub000/internal/models"

// Stats is the aggregate snapshot achievements are evaluated against.
type Stats struct {
	MaxStreak        int  `json:"max_streak"`
	TotalCompletions int  `json:"total_completions"`
	HabitCount       int  `json:"habit_count"`
	CategoryCount    int  `json:"category_count"`
	HasEarlyBird     bool `json:"has_early_bird"`
	HasNightOwl      bool `json:"has_night_owl"`
	HasComebackKid   bool `json:"has_comeback_kid"`
}

// Rule returns the counter an achievement compares against its requirement.
type Rule func(Stats) int

func maxStreak(s Stats) int        { return s.MaxStreak }
func totalCompletions(s Stats) int { return s.TotalCompletions }
func habitCount(s Stats) int       { return s.HabitCount }
func categoryCount(s Stats) int    { return s.CategoryCount }

func flag(get func(Stats) bool) Rule {
	return func(s Stats) int {
		if get(s) {
			return 1
		}
		return 0
	}
}

type entry struct {
	achievement models.Achievement
	// rule is nil for achievements that have no data source yet.
	rule Rule
}

var catalog = []entry{
	// Streak
	{models.Achievement{ID: "streak-starter", Title: "Streak Starter", Description: "Keep a habit going for 3 days in a row", Icon: "🔥", Category: models.AchievementStreak, Requirement: 3, Rarity: models.RarityCommon}, maxStreak},
	{models.Achievement{ID: "week-warrior", Title: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "⚔️", Category: models.AchievementStreak, Requirement: 7, Rarity: models.RarityCommon}, maxStreak},
	{models.Achievement{ID: "fortnight-force", Title: "Fortnight Force", Description: "Maintain a 14-day streak", Icon: "💪", Category: models.AchievementStreak, Requirement: 14, Rarity: models.RarityRare}, maxStreak},
	{models.Achievement{ID: "monthly-master", Title: "Monthly Master", Description: "Maintain a 30-day streak", Icon: "🏆", Category: models.AchievementStreak, Requirement: 30, Rarity: models.RarityEpic}, maxStreak},
	{models.Achievement{ID: "century-streak", Title: "Century Streak", Description: "Maintain a 100-day streak", Icon: "💯", Category: models.AchievementStreak, Requirement: 100, Rarity: models.RarityLegendary}, maxStreak},

	// Consistency
	{models.Achievement{ID: "perfect-day", Title: "Perfect Day", Description: "Complete every habit in a single day", Icon: "✨", Category: models.AchievementConsistency, Requirement: 1, Rarity: models.RarityCommon}, nil},
	{models.Achievement{ID: "perfect-week", Title: "Perfect Week", Description: "Complete every habit for 7 days", Icon: "🌟", Category: models.AchievementConsistency, Requirement: 7, Rarity: models.RarityEpic}, nil},

	// Milestone
	{models.Achievement{ID: "first-step", Title: "First Step", Description: "Log your first completion", Icon: "👣", Category: models.AchievementMilestone, Requirement: 1, Rarity: models.RarityCommon}, totalCompletions},
	{models.Achievement{ID: "getting-started", Title: "Getting Started", Description: "Log 10 completions", Icon: "🌱", Category: models.AchievementMilestone, Requirement: 10, Rarity: models.RarityCommon}, totalCompletions},
	{models.Achievement{ID: "half-century", Title: "Half Century", Description: "Log 50 completions", Icon: "🎯", Category: models.AchievementMilestone, Requirement: 50, Rarity: models.RarityRare}, totalCompletions},
	{models.Achievement{ID: "centurion", Title: "Centurion", Description: "Log 100 completions", Icon: "🏅", Category: models.AchievementMilestone, Requirement: 100, Rarity: models.RarityEpic}, totalCompletions},
	{models.Achievement{ID: "habit-legend", Title: "Habit Legend", Description: "Log 500 completions", Icon: "👑", Category: models.AchievementMilestone, Requirement: 500, Rarity: models.RarityLegendary}, totalCompletions},
	{models.Achievement{ID: "habit-builder", Title: "Habit Builder", Description: "Track 3 habits at once", Icon: "🧱", Category: models.AchievementMilestone, Requirement: 3, Rarity: models.RarityCommon}, habitCount},
	{models.Achievement{ID: "habit-architect", Title: "Habit Architect", Description: "Track 10 habits at once", Icon: "🏛️", Category: models.AchievementMilestone, Requirement: 10, Rarity: models.RarityRare}, habitCount},

	// Special
	{models.Achievement{ID: "multi-category", Title: "Well Rounded", Description: "Track habits in 3 different categories", Icon: "🎨", Category: models.AchievementSpecial, Requirement: 3, Rarity: models.RarityRare}, categoryCount},
	{models.Achievement{ID: "early-bird", Title: "Early Bird", Description: "Complete a habit before 6 AM", Icon: "🌅", Category: models.AchievementSpecial, Requirement: 1, Rarity: models.RarityRare}, flag(func(s Stats) bool { return s.HasEarlyBird })},
	{models.Achievement{ID: "night-owl", Title: "Night Owl", Description: "Complete a habit after 10 PM", Icon: "🦉", Category: models.AchievementSpecial, Requirement: 1, Rarity: models.RarityRare}, flag(func(s Stats) bool { return s.HasNightOwl })},
	{models.Achievement{ID: "comeback-kid", Title: "Comeback Kid", Description: "Resume a habit after a break of 3 or more days", Icon: "🔄", Category: models.AchievementSpecial, Requirement: 1, Rarity: models.RarityEpic}, flag(func(s Stats) bool { return s.HasComebackKid })},
}

// Catalog returns a copy of every achievement in display order.
func Catalog() []models.Achievement {
	out := make([]models.Achievement, len(catalog))
	for i, e := range catalog {
		out[i] = e.achievement
	}
	return out
}

// Lookup returns the catalog entry with the given id.
func Lookup(id string) (models.Achievement, bool) {
	for _, e := range catalog {
		if e.achievement.ID == id {
			return e.achievement, true
		}
	}
	return models.Achievement{}, false
}
