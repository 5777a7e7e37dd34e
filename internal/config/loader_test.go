package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/authsvc/pkg/logger"
)

// 32 zero bytes, base64 encoded
const testSecret = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: sqlite
  sqlite_path: /tmp/authsvc.db
redis:
  addr: localhost:6380
jwt:
  secret_key: `+testSecret+`
  expiration: 1h
`)

	cfg, _, err := LoadConfigFile(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Zero(t, cfg.JWT.LedgerRetention, "ledger entries are kept until logout unless retention is set")
	assert.False(t, cfg.Security.LedgerCheck)
	assert.Equal(t, "ADMIN", cfg.Security.DefaultRole)
}

func TestLoadConfigFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite_path: /tmp/authsvc.db
jwt:
  secret_key: `+testSecret+`
`)
	t.Setenv("AUTHSVC_SERVER_PORT", "7070")
	t.Setenv("AUTHSVC_SECURITY_LEDGER_CHECK", "true")

	cfg, _, err := LoadConfigFile(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Security.LedgerCheck)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}

func TestLoadConfigFile_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite_path: /tmp/authsvc.db
`)

	_, _, err := LoadConfigFile(path, logger.NewNoopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret_key")
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "postgres", Host: "db", Database: "auth"},
			Redis:    RedisConfig{Addr: "localhost:6379"},
			JWT:      JWTConfig{SecretKey: testSecret, Expiration: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "secret not base64", mutate: func(c *Config) { c.JWT.SecretKey = "%%%" }, wantErr: "base64"},
		{name: "secret too short", mutate: func(c *Config) { c.JWT.SecretKey = "c2hvcnQ=" }, wantErr: "at least 32 bytes"},
		{name: "negative ledger retention", mutate: func(c *Config) { c.JWT.LedgerRetention = -time.Minute }, wantErr: "jwt.ledger_retention"},
		{name: "zero expiration", mutate: func(c *Config) { c.JWT.Expiration = 0 }, wantErr: "jwt.expiration"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported database.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "sqlite_path"},
		{name: "no redis", mutate: func(c *Config) { c.Redis.Addr = "" }, wantErr: "redis.addr"},
		{name: "rate limit without window", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true, Requests: 5} }, wantErr: "rate_limit"},
		{name: "audit unknown sink", mutate: func(c *Config) { c.Audit = AuditConfig{Enabled: true, Sink: "s3"} }, wantErr: "unsupported audit.sink"},
		{name: "audit kafka without brokers", mutate: func(c *Config) { c.Audit = AuditConfig{Enabled: true, Sink: "kafka"} }, wantErr: "audit.kafka.brokers"},
		{name: "revocation without brokers", mutate: func(c *Config) { c.Revocation = RevocationConfig{Enabled: true, Topic: "t"} }, wantErr: "revocation.brokers"},
		{name: "audit disabled ignores sink", mutate: func(c *Config) { c.Audit = AuditConfig{Sink: "s3"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
