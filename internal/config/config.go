package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "" to disable
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "" to disable generation
	LLMModel          string // e.g. "llama3", "qwen2.5"

	MainTimeout      time.Duration
	HelperTimeout    time.Duration
	EmbeddingTimeout time.Duration

	CacheTTL        time.Duration
	CacheCapacity   int
	RateLimitPerMin int
	BurstLimit      int
	EnvProfile      string // "production" or "development"

	NarratorEnabled       bool
	ParserEnabled         bool
	ModalEnabled          bool
	CircuitBreakerEnabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			IngestTopic:        getEnv("INGEST_KNOWLEDGE_TOPIC_NAME", "INGEST_KNOWLEDGE"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),

			MainTimeout:      getEnvAsMillis("AI_TIMEOUT_MAIN_MS", 7000),
			HelperTimeout:    getEnvAsMillis("AI_TIMEOUT_HELPER_MS", 3000),
			EmbeddingTimeout: getEnvAsMillis("AI_TIMEOUT_EMBEDDING_MS", 1500),

			CacheTTL:        time.Duration(getEnvAsInt("AI_CACHE_TTL_S", 900)) * time.Second,
			CacheCapacity:   getEnvAsInt("AI_CACHE_CAPACITY", 512),
			RateLimitPerMin: getEnvAsInt("AI_RATE_LIMIT_PER_MIN", 60),
			BurstLimit:      getEnvAsInt("AI_BURST_LIMIT", 10),
			EnvProfile:      getEnv("AI_ENV_PROFILE", "production"),

			NarratorEnabled:       getEnvAsBool("AI_NARRATOR_ENABLED", true),
			ParserEnabled:         getEnvAsBool("AI_PARSER_ENABLED", true),
			ModalEnabled:          getEnvAsBool("AI_MODAL_ENABLED", true),
			CircuitBreakerEnabled: getEnvAsBool("AI_CIRCUIT_BREAKER_ENABLED", false),
		},
	}
}

// ProfileMultiplier loosens rate limits outside production so local
// development is not throttled by the per-minute window.
func (c *AIConfig) ProfileMultiplier() int {
	if c.EnvProfile == "production" {
		return 1
	}
	return 10
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Millisecond
}
