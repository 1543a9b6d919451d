package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "freight"
kafka:
  host: "localhost"
  port: 9092
  domain_events_topic: "freightdesk.events"
redis:
  host: "localhost"
  port: 6379
logging:
  level: "debug"
auth:
  jwt_secret: "s3cret"
freightdesk:
  http_addr: ":8080"
  storage: "postgres"
  driver_cache_ttl_seconds: 300
  rate_limit_per_minute: 600
`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "freightdesk.events", cfg.Kafka.DomainEventsTopic)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers())
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, ":8080", cfg.FreightDesk.HTTPAddr)
	require.Equal(t, 300, cfg.FreightDesk.DriverCacheTTLSeconds)
	require.Equal(t, "postgres://u:p@localhost:5432/freight?sslmode=disable", cfg.Database.ConnString())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FREIGHTDESK_HTTP_ADDR", ":9999")
	t.Setenv("FREIGHTDESK_DATABASE_PORT", "6543")
	t.Setenv("FREIGHTDESK_STORAGE", "memory")
	t.Setenv("FREIGHTDESK_REDIS_PORT", "not-a-number")

	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.FreightDesk.HTTPAddr)
	require.Equal(t, 6543, cfg.Database.Port)
	require.Equal(t, "memory", cfg.FreightDesk.Storage)
	require.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
