package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "flashlane"
kafka:
  host: "localhost"
  port: 9092
redis:
  host: "localhost"
auth:
  jwt_secret: "s3cret"
geocoder:
  mode: "nominatim"
  user_agent: "flashlane-test"
flashlane:
  environment: "production"
  http_addr: ":9090"
  track_rate_limit: 5
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "postgres://u:p@localhost:5432/flashlane?sslmode=disable", cfg.Database.ConnString())
	require.Equal(t, "shipment.changed", cfg.Kafka.ShipmentChangedTopicName)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "flashlane", cfg.Auth.Issuer)
	require.Equal(t, "nominatim", cfg.Geocoder.Mode)
	require.Equal(t, ":9090", cfg.FlashLane.HTTPAddr)
	require.Equal(t, 5, cfg.FlashLane.TrackRateLimit)
	require.Equal(t, 3, cfg.FlashLane.ContactRateLimit)
	require.Equal(t, 600, cfg.FlashLane.ContactRateWindowSeconds)
}

func TestApplyDefaults_Empty(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	require.False(t, cfg.Database.Enabled())
	require.False(t, cfg.Kafka.Enabled())
	require.False(t, cfg.Redis.Enabled())
	require.Equal(t, "development", cfg.FlashLane.Environment)
	require.Equal(t, "fake", cfg.Geocoder.Mode)
	require.Equal(t, 20, cfg.FlashLane.TrackRateLimit)
	require.Equal(t, 60, cfg.FlashLane.WorkerRateLimitPerMinute)
	require.Equal(t, 30, cfg.FlashLane.GeoCacheTTLDays)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
