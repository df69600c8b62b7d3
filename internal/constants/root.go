package constants

import "time"

const (
	AppName             = "habitkit"
	DefaultKeyringUser  = "generation-api-key"
	DatabaseKeyringUser = "database-connection"
	DefaultConfigPath   = "~/.config/habitkit/habitkit.db"
	DefaultUserID       = "local"
	Version             = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TimestampFormat is a fixed-width UTC layout so stored timestamps sort lexically.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitkit-"
	BackupFileSuffix = ".db"

	// Insight cache constants
	DefaultInsightTTL         = 24 * time.Hour
	DefaultInsightRateLimit   = time.Hour
	DefaultInsightMinDays     = 3
	DefaultGenerateTimeout    = 45 * time.Second
	InsightHashCompletionSpan = 50

	// Formatter windows
	RecentDatesPerHabit = 30
	MoodTimelineDays    = 30

	// Generation defaults
	DefaultGenerationBaseURL = "https://api.openai.com/v1"
	DefaultGenerationModel   = "gpt-4o-mini"
)
