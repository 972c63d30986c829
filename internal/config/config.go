package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	StoreDriver string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	Vault VaultConfig

	ProbeTimeout time.Duration

	LogLevel  string
	LogFormat string
}

type VaultConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	KDFIterations int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),

		Vault: VaultConfig{
			IdleTimeout:   getDuration("VAULT_IDLE_TIMEOUT", 15*time.Minute),
			SweepInterval: getDuration("VAULT_SWEEP_INTERVAL", time.Minute),
			KDFIterations: getInt("VAULT_KDF_ITERATIONS", 100000),
		},

		ProbeTimeout: getDuration("PROBE_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return n
}
