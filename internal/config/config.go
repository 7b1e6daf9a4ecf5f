package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	CommerceMongoURI string
	CommerceDatabase string
	IdentityMongoURI string
	IdentityDatabase string

	HistoryDB mysql.Config

	RedisAddr string

	KafkaBrokers      []string
	OrderTopic        string
	NotificationTopic string
	ReconcilerGroupID string

	JWTSecret      string
	AllowedOrigins []string

	CatalogCacheTTL     time.Duration
	IdempotencyTTL      time.Duration
	VerificationCodeTTL time.Duration
	ConnectRetries      int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	historyDB := mysql.NewConfig()
	historyDB.Net = "tcp"
	historyDB.Addr = getEnv("DB_HOST", "127.0.0.1") + ":" + getEnv("DB_PORT", "3306")
	historyDB.User = getEnv("DB_USER", "root")
	historyDB.Passwd = os.Getenv("DB_PASS")
	historyDB.DBName = getEnv("DB_NAME", "storefront")
	historyDB.ParseTime = true

	commerceURI := getEnv("COMMERCE_MONGO_URI", "mongodb://localhost:27017")

	return Config{
		Port:                getEnv("PORT", "8080"),
		CommerceMongoURI:    commerceURI,
		CommerceDatabase:    getEnv("COMMERCE_DB", "storefront"),
		IdentityMongoURI:    getEnv("IDENTITY_MONGO_URI", commerceURI),
		IdentityDatabase:    getEnv("IDENTITY_DB", "storefront-identity"),
		HistoryDB:           *historyDB,
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:        getList("KAFKA_BROKERS", "localhost:9092,localhost:9093,localhost:9094"),
		OrderTopic:          getEnv("ORDER_TOPIC", "order-topic"),
		NotificationTopic:   getEnv("NOTIFICATION_TOPIC", "notification-topic"),
		ReconcilerGroupID:   getEnv("RECONCILER_GROUP", "cart-reconciler-group"),
		JWTSecret:           getEnv("JWT_SECRET", "secret"),
		AllowedOrigins:      getList("ALLOWED_ORIGINS", "*"),
		CatalogCacheTTL:     getDuration("CATALOG_CACHE_TTL", time.Minute),
		IdempotencyTTL:      getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		VerificationCodeTTL: getDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		ConnectRetries:      getInt("CONNECT_RETRIES", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
