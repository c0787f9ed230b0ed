package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AppPort string
	AppEnv  string

	RedisAddr string
	RedisDB   int

	KafkaBrokers []string
	KafkaTopic   string

	// PaymentGatewayBase is the external cashier origin pay-param
	// redirect URLs point at.
	PaymentGatewayBase string

	// WithdrawFeeRate is the fraction of a withdrawal kept as fee,
	// e.g. "0.10" for 10%.
	WithdrawFeeRate decimal.Decimal

	// SerialMaxRetries bounds order-serial regeneration on collision.
	SerialMaxRetries int

	// VerifyCodeTTLSeconds is the lifetime of a verification code.
	VerifyCodeTTLSeconds int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaTopic: getEnv("KAFKA_TOPIC", "shopcore-notifications"),

		PaymentGatewayBase: getEnv("PAYMENT_GATEWAY_URL", "https://pay.example.com"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	cfg.KafkaBrokers = splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092"))

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		log.Fatalf("invalid REDIS_DB: %v", err)
	}
	if cfg.SerialMaxRetries, err = getEnvInt("SERIAL_MAX_RETRIES", 3); err != nil {
		log.Fatalf("invalid SERIAL_MAX_RETRIES: %v", err)
	}
	if cfg.SerialMaxRetries <= 0 {
		log.Fatal("SERIAL_MAX_RETRIES must be > 0")
	}
	if cfg.VerifyCodeTTLSeconds, err = getEnvInt("VERIFY_CODE_TTL_SEC", 300); err != nil {
		log.Fatalf("invalid VERIFY_CODE_TTL_SEC: %v", err)
	}

	rate := getEnv("WITHDRAW_FEE_RATE", "0.10")
	cfg.WithdrawFeeRate, err = decimal.NewFromString(rate)
	if err != nil {
		log.Fatalf("invalid WITHDRAW_FEE_RATE %q: %v", rate, err)
	}
	if cfg.WithdrawFeeRate.IsNegative() || cfg.WithdrawFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		log.Fatalf("WITHDRAW_FEE_RATE %s out of range [0, 1)", rate)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
