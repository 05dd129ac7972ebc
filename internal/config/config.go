package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort     string        // Application port
	DBDriver    string        // mysql or postgres
	DBUser      string        // Database user
	DBPassword  string        // Database password
	DBHost      string        // Database host
	DBPort      string        // Database port
	DBName      string        // Database name
	JWTSecret   string        // JWT secret key
	TokenTTL    time.Duration // Access token lifetime
	RedisAddr   string        // Redis server address
	RedisPass   string        // Redis password
	RedisDB     int           // Redis database number
	IsProd      bool          // Is production environment
	SMTPHost    string        // SMTP relay; empty logs mail instead of sending
	SMTPPort    int           // SMTP port
	SMTPUser    string        // SMTP username
	SMTPPass    string        // SMTP password
	MailFrom    string        // From address of outgoing mail
	MailWorkers int           // Mail delivery goroutines
	OTPTTL      time.Duration // Password reset code lifetime
	CORSOrigins []string      // Allowed browser origins
	MediaURL    string        // Base URL for product images
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:     getenv("APP_PORT", "8080"),
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      os.Getenv("DB_PORT"),
		DBName:      os.Getenv("DB_NAME"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    getDuration("TOKEN_TTL", 24*time.Hour),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   os.Getenv("REDIS_PASS"),
		RedisDB:     getInt("REDIS_DB", 0),
		IsProd:      os.Getenv("IS_PROD") == "true",
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getInt("SMTP_PORT", 587),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		MailFrom:    getenv("MAIL_FROM", "no-reply@localhost"),
		MailWorkers: getInt("MAIL_WORKERS", 2),
		OTPTTL:      getDuration("OTP_TTL", 10*time.Minute),
		CORSOrigins: getList("CORS_ORIGINS"),
		MediaURL:    os.Getenv("MEDIA_URL"),
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port)
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
