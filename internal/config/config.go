package config

import (
	"os"
	"strings"
)

type Config struct {
	Addr           string
	GatewayURL     string
	APIBaseURL     string
	JWTSecret      string
	AllowedOrigins []string
	Environment    string
}

func Load() *Config {
	allowedOrigins := []string{"*"}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
		for i, origin := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	return &Config{
		Addr:           getEnv("ADDR", ":8080"),
		GatewayURL:     getEnv("GATEWAY_URL", "ws://localhost:8080/ws"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
		JWTSecret:      getEnv("JWT_SECRET", "default_secret"),
		AllowedOrigins: allowedOrigins,
		Environment:    getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
