// Package config loads habitkit settings from .env files and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
)

const envPrefix = "HABITKIT_"

type Config struct {
	// DB is a sqlite file path or a postgres:// URL. Empty means "not set":
	// the keyring and then the default path are consulted by the caller.
	DB       string
	UserID   string
	Timezone string
	Debug    bool

	InsightTTL       time.Duration
	InsightRateLimit time.Duration
	InsightMinDays   int
	GenerateTimeout  time.Duration

	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
}

// Load reads the first .env file found and then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(envPaths())
}

// LoadFrom is Load with an explicit list of candidate .env files.
func LoadFrom(paths []string) (*Config, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg := &Config{
		DB:               ExpandHome(getEnvString("DB", "")),
		UserID:           getEnvString("USER", constants.DefaultUserID),
		Timezone:         getEnvString("TIMEZONE", "Local"),
		Debug:            getEnvBool("DEBUG", false),
		InsightTTL:       getEnvDuration("INSIGHT_TTL", constants.DefaultInsightTTL),
		InsightRateLimit: getEnvDuration("INSIGHT_RATE_LIMIT", constants.DefaultInsightRateLimit),
		InsightMinDays:   getEnvInt("INSIGHT_MIN_DAYS", constants.DefaultInsightMinDays),
		GenerateTimeout:  getEnvDuration("GENERATE_TIMEOUT", constants.DefaultGenerateTimeout),
		LLMBaseURL:       getEnvString("LLM_BASE_URL", constants.DefaultGenerationBaseURL),
		LLMModel:         getEnvString("LLM_MODEL", constants.DefaultGenerationModel),
		LLMAPIKey:        getEnvString("LLM_API_KEY", ""),
	}
	return cfg, nil
}

// Insights returns the cache settings for the insight controller.
func (c *Config) Insights() insights.Config {
	return insights.Config{
		TTL:             c.InsightTTL,
		RateLimitWindow: c.InsightRateLimit,
		GenerateTimeout: c.GenerateTimeout,
		MinDays:         c.InsightMinDays,
	}
}

// IsPostgres reports whether DB names a postgres server rather than a file.
func (c *Config) IsPostgres() bool {
	return IsPostgresURL(c.DB)
}

func IsPostgresURL(db string) bool {
	return strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://")
}

// DefaultDBPath is the sqlite file used when nothing else is configured.
func DefaultDBPath() string {
	return ExpandHome(constants.DefaultConfigPath)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", constants.AppName, ".env"))
	}
	return paths
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90m") or bare seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
