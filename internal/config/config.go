package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Booking engine configuration (hold/intent TTLs, cancellation window)
	Booking BookingConfig

	// JWT configuration (admin surfaces)
	JWT JWTConfig

	// Mail gateway configuration
	Mail MailConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	PublicURL   string // base URL clients are redirected back to after payment
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// BookingConfig holds seat hold and booking lifecycle configuration
type BookingConfig struct {
	HoldTTL             time.Duration // how long a seat hold blocks other customers
	IntentTTL           time.Duration // how long a payment intent stays payable
	CancelBeforeHours   int           // bookings may not be cancelled closer to departure than this
	TripHorizonDays     int           // how many days of trips the generator materializes
	ReminderWindowHours int           // departure reminder emails go out within this window
	SweepInterval       time.Duration // background sweep frequency for expired holds/intents
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// MailConfig holds mail gateway configuration
type MailConfig struct {
	Mode      string // "dev" logs instead of sending, "production" calls the mail API
	APIURL    string
	APIKey    string
	FromName  string
	FromEmail string
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	VNPay VNPayConfig
	MoMo  MoMoConfig
}

// VNPayConfig holds VNPay gateway credentials
type VNPayConfig struct {
	TmnCode    string
	HashSecret string // SECRET - never expose to client
	PayURL     string
	ReturnURL  string
}

// MoMoConfig holds MoMo gateway credentials
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string // SECRET - never expose to client
	Endpoint    string
	ReturnURL   string
	IPNURL      string
}

// RateLimitConfig holds hold-creation rate limiting configuration
type RateLimitConfig struct {
	MaxPhoneRequests   int
	PhoneWindowMinutes int
	MaxIPRequests      int
	IPWindowMinutes    int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	AdminUsername    string
	AdminPassword    string // seeded on startup if the admin user does not exist
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Booking: BookingConfig{
			HoldTTL:             time.Duration(getEnvAsInt("HOLD_TTL_MINUTES", 10)) * time.Minute,
			IntentTTL:           time.Duration(getEnvAsInt("PAYMENT_INTENT_TTL_MINUTES", 15)) * time.Minute,
			CancelBeforeHours:   getEnvAsInt("CANCEL_BEFORE_HOURS", 2),
			TripHorizonDays:     getEnvAsInt("TRIP_HORIZON_DAYS", 30),
			ReminderWindowHours: getEnvAsInt("REMINDER_WINDOW_HOURS", 24),
			SweepInterval:       time.Duration(getEnvAsInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Mail: MailConfig{
			Mode:      getEnv("MAIL_MODE", "dev"),
			APIURL:    getEnv("MAIL_API_URL", "https://api.mailersend.com/v1"),
			APIKey:    getEnv("MAIL_API_KEY", ""),
			FromName:  getEnv("MAIL_FROM_NAME", "LaGi Express"),
			FromEmail: getEnv("MAIL_FROM_EMAIL", "tickets@lagiexpress.vn"),
		},
		Payment: PaymentConfig{
			VNPay: VNPayConfig{
				TmnCode:    getEnv("VNPAY_TMN_CODE", ""),
				HashSecret: getEnv("VNPAY_HASH_SECRET", ""),
				PayURL:     getEnv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
				ReturnURL:  getEnv("VNPAY_RETURN_URL", ""),
			},
			MoMo: MoMoConfig{
				PartnerCode: getEnv("MOMO_PARTNER_CODE", ""),
				AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
				SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
				Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
				ReturnURL:   getEnv("MOMO_RETURN_URL", ""),
				IPNURL:      getEnv("MOMO_IPN_URL", ""),
			},
		},
		RateLimit: RateLimitConfig{
			MaxPhoneRequests:   getEnvAsInt("HOLD_RATE_LIMIT_PHONE", 5),
			PhoneWindowMinutes: getEnvAsInt("HOLD_RATE_WINDOW_PHONE_MINUTES", 10),
			MaxIPRequests:      getEnvAsInt("HOLD_RATE_LIMIT_IP", 20),
			IPWindowMinutes:    getEnvAsInt("HOLD_RATE_WINDOW_IP_MINUTES", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Booking.HoldTTL <= 0 {
		return fmt.Errorf("HOLD_TTL_MINUTES must be positive")
	}

	if c.Booking.CancelBeforeHours < 0 {
		return fmt.Errorf("CANCEL_BEFORE_HOURS must not be negative")
	}

	// Validate mail configuration only in production mode
	if c.Mail.Mode == "production" {
		if c.Mail.APIKey == "" {
			return fmt.Errorf("MAIL_API_KEY is required in production mail mode")
		}
	}

	// Gateway credentials are only required in production; sandbox defaults
	// cover development and the simulated provider covers tests
	if c.Server.Environment == "production" {
		if c.Payment.VNPay.TmnCode == "" || c.Payment.VNPay.HashSecret == "" {
			return fmt.Errorf("VNPAY_TMN_CODE and VNPAY_HASH_SECRET are required in production")
		}
		if c.Payment.MoMo.PartnerCode == "" || c.Payment.MoMo.SecretKey == "" {
			return fmt.Errorf("MOMO_PARTNER_CODE and MOMO_SECRET_KEY are required in production")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
