package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// Config trả về giá trị biến môi trường, nạp .env một lần duy nhất
func Config(key string) string {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Không tìm thấy file .env, dùng biến môi trường hệ thống...")
		}
	})
	return os.Getenv(key)
}

type VNPaySettings struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	IPNURL     string
	Locale     string
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Settings is read once at startup and never mutated afterwards.
type Settings struct {
	Port        string
	StoreDriver string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret   string
	FrontendURL string

	VNPay       VNPaySettings
	ShippingFee int64
	IPNTimeout  time.Duration

	RedisAddr   string
	RabbitMQURL string

	SMTP       SMTPSettings
	AlertEmail string

	CartIdleDays       int
	PaymentReviewAfter time.Duration
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func Load() (Settings, error) {
	s := Settings{
		Port:        withDefault(Config("PORT"), "8002"),
		StoreDriver: withDefault(Config("STORE_DRIVER"), StoreDriverPostgres),

		DBHost:     Config("DB_HOST"),
		DBUser:     Config("DB_USER"),
		DBPassword: Config("DB_PASSWORD"),
		DBName:     Config("DB_NAME"),

		JWTSecret:   Config("JWT_SECRET"),
		FrontendURL: strings.TrimRight(Config("FRONTEND_URL"), "/"),

		VNPay: VNPaySettings{
			TmnCode:    Config("VNP_TMNCODE"),
			HashSecret: Config("VNP_HASHSECRET"),
			BaseURL:    Config("VNP_URL"),
			ReturnURL:  strings.TrimRight(Config("APP_URL"), "/") + "/payment/return",
			IPNURL:     strings.TrimRight(Config("APP_URL"), "/") + "/payment/ipn",
			Locale:     withDefault(Config("VNP_LOCALE"), "vn"),
		},

		RedisAddr:   Config("REDIS_ADDR"),
		RabbitMQURL: Config("RABBITMQ_URL"),

		SMTP: SMTPSettings{
			Host:     Config("SMTP_HOST"),
			Username: Config("SMTP_USERNAME"),
			Password: Config("SMTP_PASSWORD"),
			From:     Config("SMTP_FROM"),
		},
		AlertEmail: Config("ALERT_EMAIL"),
	}

	var err error
	if s.ShippingFee, err = int64Env("SHIPPING_FEE", 30000); err != nil {
		return Settings{}, err
	}
	if s.SMTP.Port, err = intEnv("SMTP_PORT", 587); err != nil {
		return Settings{}, err
	}
	if s.CartIdleDays, err = intEnv("CART_IDLE_DAYS", 30); err != nil {
		return Settings{}, err
	}
	if s.IPNTimeout, err = durationEnv("IPN_TIMEOUT", 5*time.Second); err != nil {
		return Settings{}, err
	}
	if s.PaymentReviewAfter, err = durationEnv("PAYMENT_REVIEW_AFTER", 24*time.Hour); err != nil {
		return Settings{}, err
	}

	// bắt buộc
	if s.JWTSecret == "" {
		return Settings{}, fmt.Errorf("JWT_SECRET is required")
	}
	if s.VNPay.TmnCode == "" {
		return Settings{}, fmt.Errorf("VNP_TMNCODE is required")
	}
	if s.VNPay.HashSecret == "" {
		return Settings{}, fmt.Errorf("VNP_HASHSECRET is required")
	}
	if s.VNPay.BaseURL == "" {
		return Settings{}, fmt.Errorf("VNP_URL is required")
	}
	if s.ShippingFee < 0 {
		return Settings{}, fmt.Errorf("SHIPPING_FEE must not be negative")
	}

	switch s.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if s.DBHost == "" || s.DBUser == "" || s.DBName == "" {
			return Settings{}, fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required")
		}
		if s.DBPort, err = intEnv("DB_PORT", 5432); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}

	return s, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := Config(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := Config(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := Config(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
