package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = "8080"

	// Turn processing
	DefaultMaxFreeTextBytes  = 4 << 10 // 4KB per turn's free_text
	DefaultMaxEventsPerTurn  = 64
	DefaultTurnDeadline      = 2 * time.Second
	DefaultMaxQuestionTurns  = 8
	DefaultMinCandidateScore = 0.05

	// Rate limiting
	DefaultTurnRateLimit   = 60
	DefaultRateLimitWindow = time.Minute
	DefaultTrustedProxies  = "127.0.0.1,::1"

	// Reference data
	DefaultReferenceDataDir = "testdata/reference"

	// AI phrasing (optional, never on the decision path)
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultAIRequestTimeout = 5 * time.Second
	DefaultAIMaxTokens      = 200

	// AI circuit breaker, guarding the phrasing provider only
	DefaultAICircuitFailureThreshold = 5
	DefaultAICircuitResetTimeout     = 30 * time.Second
	DefaultAICircuitHalfOpenMax      = 1

	// Session store
	DefaultSessionStoreDriver = "memory" // "memory" or "sqlite"
	DefaultSessionDBPath      = ".data/sessions.db"
	DefaultSessionTTL         = 24 * time.Hour
	DefaultSessionShards      = 32
)

// Config holds all runtime configuration for the triage engine, loaded once
// at startup from the environment and never mutated afterward.
type Config struct {
	// Server
	Host        string
	Port        string
	CORSOrigins []string

	// Turn processing limits
	MaxFreeTextBytes  int64
	MaxEventsPerTurn  int
	TurnDeadline      time.Duration
	MaxQuestionTurns  int
	MinCandidateScore float64

	// Rate limiting
	TurnRateLimit   int
	RateLimitWindow time.Duration
	TrustedProxies  []string

	// Reference data
	ReferenceDataDir string

	// AI-assisted question phrasing (optional)
	OpenAIAPIKey      string
	OpenAIModel       string
	AIPhrasingEnabled bool // auto-enabled when OPENAI_API_KEY is set
	AIRequestTimeout  time.Duration
	AIMaxTokens       int

	// AI circuit breaker
	AICircuitFailureThreshold int
	AICircuitResetTimeout     time.Duration
	AICircuitHalfOpenMax      int

	// Session store
	SessionStoreDriver string
	SessionDBPath      string
	SessionTTL         time.Duration
	SessionShards      int
}

// LoadConfig reads configuration from the environment, falling back to
// defaults for anything unset.
func LoadConfig() *Config {
	corsOrigins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	parsedCORSOrigins := splitCSV(corsOrigins)
	if len(parsedCORSOrigins) == 0 {
		parsedCORSOrigins = []string{"http://localhost:3000"}
	}

	openAIAPIKey := getEnv("OPENAI_API_KEY", "")
	aiPhrasingEnabled := openAIAPIKey != "" && getEnvBool("AI_PHRASING_ENABLED", true)

	if aiPhrasingEnabled {
		slog.Info("AI question phrasing enabled (OPENAI_API_KEY is set)")
	} else {
		slog.Info("AI question phrasing disabled; using canonical question text verbatim")
	}

	return &Config{
		Host:        getEnv("HOST", DefaultHost),
		Port:        getEnv("PORT", DefaultPort),
		CORSOrigins: parsedCORSOrigins,

		MaxFreeTextBytes:  getEnvInt64("MAX_FREE_TEXT_BYTES", DefaultMaxFreeTextBytes),
		MaxEventsPerTurn:  getEnvInt("MAX_EVENTS_PER_TURN", DefaultMaxEventsPerTurn),
		TurnDeadline:      getEnvDuration("TURN_DEADLINE", DefaultTurnDeadline),
		MaxQuestionTurns:  getEnvInt("MAX_QUESTION_TURNS", DefaultMaxQuestionTurns),
		MinCandidateScore: getEnvFloat64("MIN_CANDIDATE_SCORE", DefaultMinCandidateScore),

		TurnRateLimit:   getEnvInt("TURN_RATE_LIMIT", DefaultTurnRateLimit),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", DefaultRateLimitWindow),
		TrustedProxies:  splitCSV(getEnv("TRUSTED_PROXIES", DefaultTrustedProxies)),

		ReferenceDataDir: getEnv("REFERENCE_DATA_DIR", DefaultReferenceDataDir),

		OpenAIAPIKey:      openAIAPIKey,
		OpenAIModel:       getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		AIPhrasingEnabled: aiPhrasingEnabled,
		AIRequestTimeout:  getEnvDuration("AI_REQUEST_TIMEOUT", DefaultAIRequestTimeout),
		AIMaxTokens:       getEnvInt("AI_MAX_TOKENS", DefaultAIMaxTokens),

		AICircuitFailureThreshold: getEnvInt("AI_CIRCUIT_FAILURE_THRESHOLD", DefaultAICircuitFailureThreshold),
		AICircuitResetTimeout:     getEnvDuration("AI_CIRCUIT_RESET_TIMEOUT", DefaultAICircuitResetTimeout),
		AICircuitHalfOpenMax:      getEnvInt("AI_CIRCUIT_HALF_OPEN_MAX", DefaultAICircuitHalfOpenMax),

		SessionStoreDriver: getEnv("SESSION_STORE_DRIVER", DefaultSessionStoreDriver),
		SessionDBPath:      getEnv("SESSION_DB_PATH", DefaultSessionDBPath),
		SessionTTL:         getEnvDuration("SESSION_TTL", DefaultSessionTTL),
		SessionShards:      getEnvInt("SESSION_SHARDS", DefaultSessionShards),
	}
}

// ValidateConfig checks config values and returns an error on failure.
// Call after LoadConfig to fail fast on invalid configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.MaxFreeTextBytes <= 0 {
		return fmt.Errorf("MAX_FREE_TEXT_BYTES must be positive")
	}
	if cfg.MaxEventsPerTurn <= 0 {
		return fmt.Errorf("MAX_EVENTS_PER_TURN must be positive")
	}
	if cfg.TurnDeadline <= 0 {
		return fmt.Errorf("TURN_DEADLINE must be positive")
	}
	if cfg.MaxQuestionTurns <= 0 {
		return fmt.Errorf("MAX_QUESTION_TURNS must be positive")
	}
	if cfg.AICircuitFailureThreshold <= 0 {
		return fmt.Errorf("AI_CIRCUIT_FAILURE_THRESHOLD must be positive")
	}
	if cfg.AICircuitResetTimeout <= 0 {
		return fmt.Errorf("AI_CIRCUIT_RESET_TIMEOUT must be positive")
	}
	if cfg.AICircuitHalfOpenMax <= 0 {
		return fmt.Errorf("AI_CIRCUIT_HALF_OPEN_MAX must be positive")
	}
	if cfg.Port != "" {
		if _, err := strconv.Atoi(cfg.Port); err != nil {
			return fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must have at least one origin")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin == "" || !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must be a valid http(s) URL", origin)
		}
	}
	if cfg.TurnRateLimit <= 0 {
		return fmt.Errorf("TURN_RATE_LIMIT must be positive")
	}
	if cfg.ReferenceDataDir == "" {
		return fmt.Errorf("REFERENCE_DATA_DIR must be set")
	}
	if len(cfg.TrustedProxies) == 0 {
		return fmt.Errorf("TRUSTED_PROXIES must have at least one entry")
	}
	for _, proxy := range cfg.TrustedProxies {
		if proxy == "" {
			return fmt.Errorf("TRUSTED_PROXIES must not contain empty entries")
		}
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		return fmt.Errorf("TRUSTED_PROXIES entry %q must be a valid IP or CIDR", proxy)
	}
	switch cfg.SessionStoreDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("SESSION_STORE_DRIVER must be memory or sqlite, got %q", cfg.SessionStoreDriver)
	}
	if cfg.SessionShards <= 0 {
		return fmt.Errorf("SESSION_SHARDS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat64(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var items []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
