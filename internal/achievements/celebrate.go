package achievements

import (
	"sort"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

// SeenSet holds the ids of achievements the caller has already celebrated.
type SeenSet map[string]struct{}

// NewSeenSet builds a set from stored ids.
func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Mark records the achievements as celebrated.
func (s SeenSet) Mark(list ...models.Achievement) {
	for _, a := range list {
		s[a.ID] = struct{}{}
	}
}

// IDs returns the ids in the set, sorted.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewUnlocks returns the unlocked achievements missing from seen, ordered with
// the rarest first. seen is not modified.
func NewUnlocks(unlocked []models.Achievement, seen SeenSet) []models.Achievement {
	var fresh []models.Achievement
	for _, a := range unlocked {
		if !seen.Has(a.ID) {
			fresh = append(fresh, a)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Rarity.Rank() > fresh[j].Rarity.Rank()
	})
	return fresh
}
