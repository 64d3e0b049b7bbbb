package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string
	JWTSecret    string

	// Operator credentials for the single-seller login.
	AuthUsername string
	AuthPassword string
	TokenExpiry  time.Duration

	// Analytics defaults.
	MinMarginPercent     decimal.Decimal
	FilterNegativeMargin bool

	// Alert thresholds.
	LowStockThreshold  int
	AlertMarginPercent decimal.Decimal
	AlertPollInterval  time.Duration

	// Wildberries API access.
	WbAPIBaseURL   string
	WbAPIToken     string
	WbMockMode     bool
	WbMockDataPath string

	MaxUploadSizeBytes int64
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "insecure-development-jwt-secret-change-me-32b!")
	if jwtSecret == "insecure-development-jwt-secret-change-me-32b!" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./marketplace-helper.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		JWTSecret:    jwtSecret,

		AuthUsername: getEnv("AUTH_USERNAME", "iconzrus"),
		AuthPassword: getEnv("AUTH_PASSWORD", "iconzrus"),
		TokenExpiry:  getEnvAsDuration("TOKEN_EXPIRY", 12*time.Hour),

		MinMarginPercent:     getEnvAsDecimal("ANALYTICS_MIN_MARGIN_PERCENT", decimal.Zero),
		FilterNegativeMargin: getEnvAsBool("ANALYTICS_FILTER_NEGATIVE_MARGIN", true),

		LowStockThreshold:  getEnvAsInt("ALERTS_LOW_STOCK_THRESHOLD", 10),
		AlertMarginPercent: getEnvAsDecimal("ALERTS_MARGIN_PERCENT_THRESHOLD", decimal.NewFromInt(10)),
		AlertPollInterval:  getEnvAsDuration("ALERTS_POLL_INTERVAL", 10*time.Second),

		WbAPIBaseURL:   getEnv("WB_API_BASE_URL", "https://discounts-prices-api.wildberries.ru"),
		WbAPIToken:     getEnv("WB_API_TOKEN", ""),
		WbMockMode:     getEnvAsBool("WB_API_MOCK_MODE", false),
		WbMockDataPath: getEnv("WB_API_MOCK_DATA_PATH", "data/wb-mock-products.json"),

		MaxUploadSizeBytes: maxUploadSizeBytes,
	}

	if Cfg.AuthPassword == "iconzrus" {
		log.Println("WARNING: Using default operator credentials. Set AUTH_USERNAME/AUTH_PASSWORD for production.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, MockMode=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.WbMockMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid decimal value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
