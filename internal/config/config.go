package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GradingModel   string
	Temperature    float32
	MaxTokens      int
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	BatchSize      int
	BatchDelay     time.Duration
	StatsCacheTTL  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEWISE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Gradewise API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("grading.model", "gpt-4o-mini")
	v.SetDefault("grading.temperature", 0.2)
	v.SetDefault("grading.max_tokens", 4096)
	v.SetDefault("grading.request_timeout", "3m")
	v.SetDefault("grading.max_retries", 3)
	v.SetDefault("grading.retry_base_delay", "1s")
	v.SetDefault("grading.batch_size", 3)
	v.SetDefault("grading.batch_delay", "2s")
	v.SetDefault("stats.cache_ttl", "5m")

	requestTimeout, err := parseDuration(v, "grading.request_timeout")
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading request timeout: %w", err)
	}

	retryBaseDelay, err := parseDuration(v, "grading.retry_base_delay")
	if err != nil {
		return Config{}, fmt.Errorf("invalid retry base delay: %w", err)
	}

	batchDelay, err := parseDuration(v, "grading.batch_delay")
	if err != nil {
		return Config{}, fmt.Errorf("invalid batch delay: %w", err)
	}

	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		DatabaseURL:    v.GetString("database.url"),
		RedisURL:       v.GetString("redis.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		GradingModel:   v.GetString("grading.model"),
		Temperature:    float32(v.GetFloat64("grading.temperature")),
		MaxTokens:      v.GetInt("grading.max_tokens"),
		RequestTimeout: requestTimeout,
		MaxRetries:     v.GetInt("grading.max_retries"),
		RetryBaseDelay: retryBaseDelay,
		BatchSize:      v.GetInt("grading.batch_size"),
		BatchDelay:     batchDelay,
		StatsCacheTTL:  statsTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := v.GetString(key)
	if value == "" {
		return 0, fmt.Errorf("empty duration for %s", key)
	}

	return time.ParseDuration(value)
}
