package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment. There is no file-based
// state; the process is configured entirely through env vars (and an optional
// .env file loaded in main).
type Config struct {
	Port      string
	PublicURL string

	// Generation Service (answer/question text). The game never depends on
	// this being reachable; every call site has a local fallback.
	GenAPIKey   string
	GenEndpoint string
	GenModel    string
	GenTimeout  time.Duration

	AnswerTime time.Duration
	VoteTime   time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),
		GenAPIKey:   getEnv("GENAI_API_KEY", ""),
		GenEndpoint: getEnv("GENAI_ENDPOINT", "https://api.anthropic.com/v1/messages"),
		GenModel:    getEnv("GENAI_MODEL", "claude-3-5-haiku-latest"),
		GenTimeout:  getEnvSeconds("GENAI_TIMEOUT_SECONDS", 15),
		AnswerTime:  getEnvSeconds("ANSWER_TIME_SECONDS", 60),
		VoteTime:    getEnvSeconds("VOTE_TIME_SECONDS", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultValue) * time.Second
}
