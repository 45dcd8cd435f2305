// Package config loads the application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the application reads at startup.
type Config struct {
	// ServerPort is the TCP port the HTTP server listens on.
	ServerPort string

	// DBPath is the path of the SQLite database file holding the
	// users and vehicles tables.
	DBPath string

	// MinContourArea is the minimum enclosed area, in squared pixels,
	// a contour must exceed to be considered a plate candidate.
	MinContourArea float64

	// OCRLanguage is the Tesseract language code used for recognition.
	OCRLanguage string

	// LogFormat selects the slog handler: "json" or "kv".
	LogFormat string

	JWTSecret     string
	JWTExpiration time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; a missing file is not an
// error.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	minArea := getEnvFloat("MIN_CONTOUR_AREA", 500)
	jwtExpHours := getEnvInt("JWT_EXPIRATION_HOURS", 24)

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "stationnement.db"),
		MinContourArea: minArea,
		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		JWTExpiration:  time.Duration(jwtExpHours) * time.Hour,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("warning: %s=%q is not an integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("warning: %s=%q is not a number, using %g", key, value, fallback)
		return fallback
	}
	return f
}
