package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.yaml.in/yaml/v4"
)

const envPrefix = "FREIGHTDESK_"

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Auth        AuthConfig        `yaml:"auth"`
	FreightDesk FreightDeskConfig `yaml:"freightdesk"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnString is the postgres URL understood by both pgx and golang-migrate.
func (c DatabaseConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

type KafkaConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	DomainEventsTopic string `yaml:"domain_events_topic"`
	NotifierGroupID   string `yaml:"notifier_group_id"`
}

func (c KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type AuthConfig struct {
	// JWTSecret verifies HS256 tokens issued by the identity provider.
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type FreightDeskConfig struct {
	HTTPAddr              string `yaml:"http_addr"`
	Storage               string `yaml:"storage"` // "postgres" | "memory"
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	DriverCacheTTLSeconds int    `yaml:"driver_cache_ttl_seconds"`
	RateLimitPerMinute    int    `yaml:"rate_limit_per_minute"`

	WorkerHTTPAddr       string `yaml:"worker_http_addr"`
	WorkerRetryAttempts  int    `yaml:"worker_retry_attempts"`
	WorkerRetryInitialMs int    `yaml:"worker_retry_initial_ms"`
	WorkerRetryMaxMs     int    `yaml:"worker_retry_max_ms"`
	WorkerRestartSeconds int    `yaml:"worker_restart_seconds"`
}

// LoadConfig reads the YAML file, then applies FREIGHTDESK_* overrides from
// the environment (and a .env file next to the process, if any).
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

	_ = godotenv.Load(".env")
	applyEnv(&config)

	return &config, nil
}

func applyEnv(c *Config) {
	str(&c.Database.Host, "DATABASE_HOST")
	num(&c.Database.Port, "DATABASE_PORT")
	str(&c.Database.Username, "DATABASE_USERNAME")
	str(&c.Database.Password, "DATABASE_PASSWORD")
	str(&c.Database.DBName, "DATABASE_NAME")
	str(&c.Database.SSLMode, "DATABASE_SSL_MODE")

	str(&c.Kafka.Host, "KAFKA_HOST")
	num(&c.Kafka.Port, "KAFKA_PORT")
	str(&c.Kafka.DomainEventsTopic, "KAFKA_DOMAIN_EVENTS_TOPIC")

	str(&c.Redis.Host, "REDIS_HOST")
	num(&c.Redis.Port, "REDIS_PORT")

	str(&c.Logging.Level, "LOG_LEVEL")
	str(&c.Logging.File, "LOG_FILE")

	str(&c.Auth.JWTSecret, "JWT_SECRET")

	str(&c.FreightDesk.HTTPAddr, "HTTP_ADDR")
	str(&c.FreightDesk.Storage, "STORAGE")
	num(&c.FreightDesk.RequestTimeoutSeconds, "REQUEST_TIMEOUT_SECONDS")
	num(&c.FreightDesk.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	str(&c.FreightDesk.WorkerHTTPAddr, "WORKER_HTTP_ADDR")
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		*dst = cast.ToString(v)
	}
}

func num(dst *int, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			*dst = n
		}
	}
}
