package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally seeded by a .env file) with simple defaults.
type Config struct {
	Port      string
	UploadDir string // Directory used by the local storage backend
	DataDir   string // Directory holding the flat-file JSON database

	// MongoDB document database. Empty URI means the flat-file backend.
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration

	// MinIO / S3-compatible object storage. All three of AccessKey,
	// SecretKey and Bucket must be set for the backend to be considered.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string // Base URL for direct object links, e.g. https://cdn.example.com

	// Generation provider (OpenAI-compatible chat completions API).
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64

	// Redis cache. Empty host disables caching.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Logging
	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:      getEnv("PORT", "3001"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		DataDir:   getEnv("DATA_DIR", "data"),

		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "feeling-the-vibe"),
		MongoConnectTimeout: time.Duration(getEnvInt("MONGODB_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", ""),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		OpenAIBaseURL:     getEnv("OPENAI_API_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIMaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 1024),
		OpenAITemperature: getEnvFloat("OPENAI_TEMPERATURE", 0.8),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", filepath.Join("logs", "vibefm.log")),
	}
}

// HasMinioCredentials reports whether enough configuration is present to
// even attempt the object-storage backend.
func (c *Config) HasMinioCredentials() bool {
	return c.MinioAccessKey != "" && c.MinioSecretKey != "" && c.MinioBucket != ""
}
