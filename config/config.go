package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	FlashLane FlashLaneConfig `yaml:"flashlane"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Enabled — без host сервис работает на in-memory хранилище.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ShipmentChangedTopicName string `yaml:"shipment_changed_topic_name"`
	WorkerConsumerGroup      string `yaml:"worker_consumer_group"`
}

func (k KafkaConfig) Enabled() bool { return k.Host != "" }

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type GeocoderConfig struct {
	// Mode: "nominatim" | "fake".
	Mode      string `yaml:"mode"`
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

type FlashLaneConfig struct {
	Environment string `yaml:"environment"`
	HTTPAddr    string `yaml:"http_addr"`

	LookupCacheTTLSeconds int `yaml:"lookup_cache_ttl_seconds"`
	GeoCacheTTLDays       int `yaml:"geo_cache_ttl_days"`

	TrackRateLimit           int `yaml:"track_rate_limit"`
	TrackRateWindowSeconds   int `yaml:"track_rate_window_seconds"`
	ContactRateLimit         int `yaml:"contact_rate_limit"`
	ContactRateWindowSeconds int `yaml:"contact_rate_window_seconds"`

	LookupRetryMaxAttempts int `yaml:"lookup_retry_max_attempts"`

	WorkerHTTPAddr                string `yaml:"worker_http_addr"`
	WorkerConcurrency             int    `yaml:"worker_concurrency"`
	WorkerRateLimitPerMinute      int    `yaml:"worker_rate_limit_per_minute"`
	WorkerBackfillIntervalSeconds int    `yaml:"worker_backfill_interval_seconds"`
	WorkerBackfillBatchSize       int    `yaml:"worker_backfill_batch_size"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills zero values. Limits default to the public site's
// original budgets: 20 lookups a minute, 3 contact messages per 10 minutes.
func (c *Config) ApplyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.Port == 0 {
		c.Kafka.Port = 9092
	}
	if c.Kafka.ShipmentChangedTopicName == "" {
		c.Kafka.ShipmentChangedTopicName = "shipment.changed"
	}
	if c.Kafka.WorkerConsumerGroup == "" {
		c.Kafka.WorkerConsumerGroup = "track-worker"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "flashlane"
	}
	if c.Geocoder.Mode == "" {
		c.Geocoder.Mode = "fake"
	}

	f := &c.FlashLane
	if f.Environment == "" {
		f.Environment = "development"
	}
	if f.HTTPAddr == "" {
		f.HTTPAddr = ":8080"
	}
	if f.LookupCacheTTLSeconds == 0 {
		f.LookupCacheTTLSeconds = 60
	}
	if f.GeoCacheTTLDays <= 0 {
		f.GeoCacheTTLDays = 30
	}
	if f.TrackRateLimit <= 0 {
		f.TrackRateLimit = 20
	}
	if f.TrackRateWindowSeconds <= 0 {
		f.TrackRateWindowSeconds = 60
	}
	if f.ContactRateLimit <= 0 {
		f.ContactRateLimit = 3
	}
	if f.ContactRateWindowSeconds <= 0 {
		f.ContactRateWindowSeconds = 600
	}
	if f.LookupRetryMaxAttempts <= 0 {
		f.LookupRetryMaxAttempts = 3
	}
	if f.WorkerHTTPAddr == "" {
		f.WorkerHTTPAddr = ":8082"
	}
	if f.WorkerConcurrency <= 0 {
		f.WorkerConcurrency = 2
	}
	if f.WorkerRateLimitPerMinute <= 0 {
		f.WorkerRateLimitPerMinute = 60
	}
	if f.WorkerBackfillBatchSize <= 0 {
		f.WorkerBackfillBatchSize = 100
	}
}
