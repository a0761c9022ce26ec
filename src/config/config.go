package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	LogLevel           string
	JWTSecret          string
	OperatorPINHash    string
	AccessTokenExpiry  time.Duration
	UploadDir          string
	MaxUploadSizeBytes int64

	// Rate provider (AI completion endpoint returning free-form text).
	RateAPIURL   string
	RateAPIKey   string
	RateAPIModel string
	RateTimeout  time.Duration
	RateCacheTTL time.Duration
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

	jwtSecret := getEnv("JWT_SECRET", "insecure-default-jwt-secret-change-me-minimum-32-bytes!")
	if jwtSecret == "insecure-default-jwt-secret-change-me-minimum-32-bytes!" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	// bcrypt hash of the operator PIN. The default is the hash of "123456",
	// usable only for local development.
	pinHash := getEnv("OPERATOR_PIN_HASH", "$2a$12$h1pUXXYYRkkpuKovEkjWWeLRFrFsvKbxGwB2xosPasIoARAW2eIdW")
	if pinHash == "$2a$12$h1pUXXYYRkkpuKovEkjWWeLRFrFsvKbxGwB2xosPasIoARAW2eIdW" {
		log.Println("WARNING: Using default OPERATOR_PIN_HASH (PIN '123456'). Set OPERATOR_PIN_HASH for production.")
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "12h")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 12h. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 12 * time.Hour
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          jwtSecret,
		OperatorPINHash:    pinHash,
		AccessTokenExpiry:  accessTokenExpiry,
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		RateAPIURL:   getEnv("RATE_API_URL", "https://api.openai.com/v1/chat/completions"),
		RateAPIKey:   getEnv("RATE_API_KEY", ""),
		RateAPIModel: getEnv("RATE_API_MODEL", "gpt-4o-mini"),
		RateTimeout:  getEnvAsDuration("RATE_TIMEOUT", 20*time.Second),
		RateCacheTTL: getEnvAsDuration("RATE_CACHE_TTL", 5*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, UploadDir=%s, RateAPIModel=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.UploadDir, Cfg.RateAPIModel)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default.", key)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
