package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("COMMERCE_MONGO_URI", "")
	t.Setenv("IDENTITY_MONGO_URI", "")

	cfg := Load()

	assert.Equal(t, []string{"localhost:9092", "localhost:9093", "localhost:9094"}, cfg.KafkaBrokers)
	assert.Equal(t, "mongodb://localhost:27017", cfg.CommerceMongoURI)
	assert.Equal(t, cfg.CommerceMongoURI, cfg.IdentityMongoURI)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.HistoryDB.ParseTime)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("IDENTITY_MONGO_URI", "mongodb://identity:27017")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("CONNECT_RETRIES", "3")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "mongodb://identity:27017", cfg.IdentityMongoURI)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, 3, cfg.ConnectRetries)
	assert.Equal(t, "db:3307", cfg.HistoryDB.Addr)
}
