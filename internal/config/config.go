package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDailyReportURL is the exchange's daily closing report endpoint.
const DefaultDailyReportURL = "https://www.twse.com.tw/exchangeReport/MI_INDEX?response=json&type=ALLBUT0999"

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ingestion
	DailyReportURL  string
	LineNotifyToken string
	RequestTimeout  time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "marketledger"),
		DBPassword: getEnv("DB_PASSWORD", "marketledger"),
		DBName:     getEnv("DB_NAME", "marketledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Ingestion
		DailyReportURL:  getEnv("TWSE_DAILY_PRICE_URL", DefaultDailyReportURL),
		LineNotifyToken: getEnv("LINE_NOTIFY_TOKEN", ""),
	}

	// Parse outbound request timeout
	timeoutStr := getEnv("REQUEST_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Printf("Warning: invalid REQUEST_TIMEOUT value '%s', falling back to 30s\n", timeoutStr)
		timeout = 30 * time.Second
	}
	config.RequestTimeout = timeout

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
