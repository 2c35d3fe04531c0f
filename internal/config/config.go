package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPPort    string
	LogLevel    string

	// Timezone is the civil timezone in which "today" is evaluated.
	Timezone string

	AuthJWTSecret string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string

	VNPay     VNPayConfig
	Scheduler SchedulerConfig
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	// ClientReturnURL is the front-end page the callback redirects to.
	ClientReturnURL string
	// MaxAmount is the gateway's upper bound in VND.
	MaxAmount int64
	// ExpireMinutes is the lifetime of a payment URL.
	ExpireMinutes int
}

type SchedulerConfig struct {
	Enabled bool
	// SweepIntervalSeconds controls how often the contract sweep runs.
	SweepIntervalSeconds int
	// OverdueAfterDays marks unpaid bills OVERDUE this long after creation.
	OverdueAfterDays int
	// LockTTLSeconds bounds the distributed job lock when redis is configured.
	LockTTLSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "dormhub"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPPort:    getenv("HTTP_PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Timezone:    getenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "dormhub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		VNPay: VNPayConfig{
			TmnCode:         strings.TrimSpace(getenv("VNPAY_TMN_CODE", "")),
			HashSecret:      strings.TrimSpace(getenv("VNPAY_HASH_SECRET", "")),
			PayURL:          getenv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:       getenv("VNPAY_RETURN_URL", "http://localhost:8080/api/payment-transactions/callback"),
			ClientReturnURL: getenv("VNPAY_CLIENT_RETURN_URL", ""),
			MaxAmount:       getenvInt64("VNPAY_MAX_AMOUNT", 1_000_000_000),
			ExpireMinutes:   getenvInt("VNPAY_EXPIRE_MINUTES", 15),
		},
		Scheduler: SchedulerConfig{
			Enabled:              getenvBool("SCHEDULER_ENABLED", true),
			SweepIntervalSeconds: getenvInt("SCHEDULER_SWEEP_INTERVAL", 300),
			OverdueAfterDays:     getenvInt("SCHEDULER_OVERDUE_AFTER_DAYS", 30),
			LockTTLSeconds:       getenvInt("SCHEDULER_LOCK_TTL", 240),
		},
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
