package models

type AchievementCategory string

const (
	AchievementStreak      AchievementCategory = "streak"
	AchievementConsistency AchievementCategory = "consistency"
	AchievementMilestone   AchievementCategory = "milestone"
	AchievementSpecial     AchievementCategory = "special"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank orders rarities from common (0) to legendary (3).
func (r Rarity) Rank() int {
	switch r {
	case RarityRare:
		return 1
	case RarityEpic:
		return 2
	case RarityLegendary:
		return 3
	default:
		return 0
	}
}

// Achievement is a static catalog entry.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Requirement int                 `json:"requirement"`
	Rarity      Rarity              `json:"rarity"`
}

// AchievementProgress is recomputed on every evaluation and never stored.
type AchievementProgress struct {
	Achievement        Achievement `json:"achievement"`
	IsUnlocked         bool        `json:"is_unlocked"`
	CurrentProgress    int         `json:"current_progress"`
	ProgressPercentage int         `json:"progress_percentage"`
}
