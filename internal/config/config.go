package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port              string
	BackendBaseURL    string
	JWTSecret         string
	PrintTimeout      time.Duration
	ServiceChargeMode string
	ServiceChargePct  decimal.Decimal
	AllowedOrigins    []string
}

func Load() *Config {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8081"),
		BackendBaseURL:    getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		PrintTimeout:      getDuration("PRINT_TIMEOUT", 10*time.Second),
		ServiceChargeMode: getEnv("SERVICE_CHARGE_MODE", "manual"),
		ServiceChargePct:  getDecimal("SERVICE_CHARGE_PCT", "10"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func getDecimal(key, fallback string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(fallback)
	return d
}
