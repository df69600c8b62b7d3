package constants

const (
	// EarlyBirdHour is the local hour before which a completion counts as early.
	EarlyBirdHour = 6
	// NightOwlHour is the local hour from which a completion counts as late.
	NightOwlHour = 22
	// ComebackGapDays is the minimum gap between two completions of a habit that
	// counts as resuming it after neglect.
	ComebackGapDays = 3
)
