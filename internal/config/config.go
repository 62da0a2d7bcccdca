package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	Quiz       QuizConfig
	Session    SessionConfig
	Submission SubmissionConfig
	Events     EventConfig
}

// QuizConfig selects the quiz served by this process
type QuizConfig struct {
	ID       string
	BankPath string
}

// SessionConfig bounds how long an untouched quiz session is kept
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// SubmissionConfig controls the result write of completed attempts
type SubmissionConfig struct {
	Endpoint string
	Timeout  time.Duration
}

const (
	DefaultSubmitTimeout        = 15 * time.Second
	DefaultSessionIdleTTL       = 30 * time.Minute
	DefaultSessionSweepInterval = time.Minute
)

// LoadConfig reads the environment, optionally seeded from a .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	timeout, err := getDuration("RESULT_SUBMIT_TIMEOUT", DefaultSubmitTimeout)
	if err != nil {
		return nil, err
	}
	idleTTL, err := getDuration("SESSION_IDLE_TTL", DefaultSessionIdleTTL)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := getDuration("SESSION_SWEEP_INTERVAL", DefaultSessionSweepInterval)
	if err != nil {
		return nil, err
	}
	eventsEnabled, err := getBool("EVENTS_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Quiz: QuizConfig{
			ID:       os.Getenv("QUIZ_ID"),
			BankPath: getEnv("QUIZ_BANK_PATH", "questions.json"),
		},
		Session: SessionConfig{
			IdleTTL:       idleTTL,
			SweepInterval: sweepInterval,
		},
		Submission: SubmissionConfig{
			Endpoint: os.Getenv("RESULT_ENDPOINT"),
			Timeout:  timeout,
		},
		Events: EventConfig{
			Enabled:      eventsEnabled,
			Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			Topic:        getEnv("QUIZ_EVENTS_TOPIC", "quiz-events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Quiz.ID == "" {
		problems = append(problems, "QUIZ_ID is required")
	}
	if c.Quiz.BankPath == "" {
		problems = append(problems, "QUIZ_BANK_PATH is required")
	}
	if c.Submission.Endpoint == "" {
		problems = append(problems, "RESULT_ENDPOINT is required")
	}
	if c.Submission.Timeout <= 0 {
		problems = append(problems, "RESULT_SUBMIT_TIMEOUT must be positive")
	}
	if c.Session.IdleTTL < 0 {
		problems = append(problems, "SESSION_IDLE_TTL must not be negative")
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		problems = append(problems, "SESSION_SWEEP_INTERVAL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
