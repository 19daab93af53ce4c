package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// External collaborators
	AmigoAPIURL    string
	ChatAPIURL     string
	LearningAPIURL string

	// Outbound HTTP
	RequestTimeoutSeconds int

	// Learning-item workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		AmigoAPIURL:           mustGetEnv("AMIGO_API_URL"),
		ChatAPIURL:            mustGetEnv("CHAT_API_URL"),
		LearningAPIURL:        mustGetEnv("LEARNING_API_URL"),
		RequestTimeoutSeconds: getEnvAsIntOrDefault("REQUEST_TIMEOUT_SECONDS", 30),
		WorkerCount:           getEnvAsIntOrDefault("WORKER_COUNT", 3),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
