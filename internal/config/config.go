package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	AppName    string

	APIBaseURL      string
	AuthEndpoint    string
	APITimeout      time.Duration
	TokenStoreDSN   string
	TokenStorageKey string

	AuditFetchLimit   int
	AuditPageSize     int
	DashboardPageSize int

	LogLevel string

	KafkaBrokers      []string
	KafkaSessionTopic string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("notice: env file not loaded: %v; using process environment", err)
	}

	return &Config{
		ListenAddr: getenv("CONSOLE_ADDR", ":3000"),
		AppName:    getenv("APP_NAME", "Signa"),

		APIBaseURL:      strings.TrimRight(getenv("API_BASE_URL", "http://127.0.0.1:8000"), "/"),
		AuthEndpoint:    getenv("API_AUTH_ENDPOINT", "/auth/login"),
		APITimeout:      envDurationDefault("API_TIMEOUT", 10*time.Second),
		TokenStoreDSN:   getenv("TOKEN_STORE_DSN", "console.db"),
		TokenStorageKey: getenv("TOKEN_STORAGE_KEY", "auth_token"),

		AuditFetchLimit:   envIntDefault("AUDIT_FETCH_LIMIT", 100),
		AuditPageSize:     envIntDefault("AUDIT_PAGE_SIZE", 6),
		DashboardPageSize: envIntDefault("DASHBOARD_PAGE_SIZE", 5),

		LogLevel: getenv("LOG_LEVEL", "info"),

		KafkaBrokers:      CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaSessionTopic: getenv("KAFKA_SESSION_TOPIC", "session_events"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
