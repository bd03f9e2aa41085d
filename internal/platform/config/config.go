package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	ActivityTopic string
	JWTSigningKey string
	TokenTTL      time.Duration

	// Bootstrap credentials seed the first admin account when the admins
	// table is empty. Both must be set for seeding to happen.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	// SuspensionLimit is the number of suspensions a doctor may accumulate;
	// the next one deletes the record and blacklists the doctor.
	SuspensionLimit int
	// RejectionLimit is the number of rejections a candidate fingerprint may
	// accumulate before it is blacklisted.
	RejectionLimit int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first if present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("MEDBOARD_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		ActivityTopic:   envOr("ACTIVITY_TOPIC", "medboard.admin-activity"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:        envDurationOr("JWT_TOKEN_TTL", 24*time.Hour),

		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

		SuspensionLimit: envIntOr("SUSPENSION_LIMIT", 5),
		RejectionLimit:  envIntOr("REJECTION_LIMIT", 3),
		ShutdownTimeout: 10 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
