package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	LogLevel  string
	LogFormat string

	// EmailRelayURL is the notification relay the email channel posts to.
	EmailRelayURL string

	// MQTT push transport. Push is disabled entirely when Broker is empty.
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Reminder timing. Shortened in tests, never in production.
	InactivityWindow time.Duration
	PostponeDelay    time.Duration
	SpeechSettle     time.Duration
}

func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/okusuri.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		EmailRelayURL: getEnv("EMAIL_RELAY_URL", "http://localhost:8000/api/send-email"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "okusuri-backend"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		InactivityWindow: time.Duration(getEnvInt("INACTIVITY_WINDOW_SECONDS", 30)) * time.Second,
		PostponeDelay:    time.Duration(getEnvInt("POSTPONE_DELAY_MINUTES", 30)) * time.Minute,
		SpeechSettle:     time.Duration(getEnvInt("SPEECH_SETTLE_MS", 100)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
