package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by CRED_ENV (or .env by default), then the
// matching .secret sidecar if it exists. Settings are read from the
// environment by the getters below.
func Load() error {
	envFile := os.Getenv("CRED_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be populated.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	return intEnv("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// AutoMigrate reports whether the server applies pending migrations from
// MigrationsPath before serving.
func AutoMigrate() bool {
	v, err := strconv.ParseBool(os.Getenv("AUTO_MIGRATE"))
	return err == nil && v
}

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
func ShutdownTimeout() time.Duration {
	return durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst defaults to 20.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// APIKeys returns the comma separated keys accepted on /v1. An empty list
// disables authentication.
func APIKeys() []string {
	var keys []string
	for _, k := range strings.Split(os.Getenv("API_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func ScoringWorkers() int {
	return intEnv("SCORING_WORKERS", 4)
}

func CorrelationChunkSize() int {
	return intEnv("CORRELATION_CHUNK_SIZE", 50)
}

func BatchQueueSize() int {
	return intEnv("BATCH_QUEUE_SIZE", 64)
}

// AuditInterval is how often stored results are recomputed and compared.
// Zero disables the auditor.
func AuditInterval() time.Duration {
	return durationEnv("AUDIT_INTERVAL", time.Hour)
}

// EvidenceCacheTTL bounds how long an evidence snapshot is served from cache.
func EvidenceCacheTTL() time.Duration {
	return durationEnv("EVIDENCE_CACHE_TTL", 30*time.Second)
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
