package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"

	NotifyTelegram = "telegram"
	NotifySNS      = "sns"
	NotifyLog      = "log"
)

type Config struct {
	AppEnv   string
	LogLevel string
	TZName   string // IANA zone the schedule is read in

	StoreDriver string
	DBPath      string

	AWSRegion         string
	AWSEndpointURL    string // LocalStack in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	DynamoTable       string
	DynamoCreateTable bool

	NotifyDriver   string
	TelegramToken  string
	TelegramChatID int64 // 0 -> waits for /start
	SNSPhoneNumber string

	HTTPAddr     string
	TickInterval time.Duration
	DoseCooldown time.Duration
}

func Load() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TZName:   getEnv("TZ_NAME", "Local"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DBPath:      getEnv("DB_PATH", DBName),

		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:    getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTable:       getEnv("DYNAMO_TABLE_MEDICATIONS", "medications"),
		DynamoCreateTable: getEnvBool("DYNAMO_CREATE_TABLE", false),

		NotifyDriver:   strings.ToLower(getEnv("NOTIFY_DRIVER", NotifyTelegram)),
		TelegramToken:  getBotToken(),
		TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),
		SNSPhoneNumber: getEnv("SNS_PHONE_NUMBER", ""),

		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		TickInterval: getEnvDuration("TICK_INTERVAL", time.Minute),
		DoseCooldown: getEnvDuration("DOSE_COOLDOWN", 30*time.Minute),
	}
}

// Location resolves TZName, falling back to the process zone.
func (c *Config) Location() *time.Location {
	if c.TZName == "" || c.TZName == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		return time.Local
	}
	return loc
}

// NewLogger builds a development logger outside production.
func NewLogger(appEnv, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// getBotToken prefers the Docker secret over the environment. Unlike the
// database path the token is optional: without it alerts fall back to the log.
func getBotToken() string {
	if data, err := os.ReadFile(secretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

const (
	DBName     = "/root/data/medications.db"
	secretPath = "/run/secrets/telegram_bot_token"
)
