package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "booking_system", cfg.Database.DBName)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "bookings", cfg.Kafka.Topics.Bookings)
	assert.Equal(t, "workers", cfg.Kafka.Topics.Workers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 300, cfg.Cache.DefaultTTL)
	assert.Equal(t, "geo:workers:available", cfg.Matching.GeoKey)
	assert.Equal(t, 50.0, cfg.Matching.MaxRadiusKm)
	assert.Equal(t, 120, cfg.RateLimit.DefaultRPM)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MATCHING_MAX_RADIUS_KM", "25.5")
	t.Setenv("RATE_LIMIT_BAN_DURATION", "60")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 25.5, cfg.Matching.MaxRadiusKm)
	assert.Equal(t, 60, cfg.RateLimit.BanDuration)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-number")
	t.Setenv("MATCHING_MAX_RADIUS_KM", "wide")

	cfg := Load()

	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, 50.0, cfg.Matching.MaxRadiusKm)
}
