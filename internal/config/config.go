package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Security   SecurityConfig   `mapstructure:"security"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Revocation RevocationConfig `mapstructure:"revocation"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Address returns the listen address of the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secret_key"` // base64
	Expiration      time.Duration `mapstructure:"expiration"`
	LedgerRetention time.Duration `mapstructure:"ledger_retention"` // 0 keeps ledger entries until logout
}

type SecurityConfig struct {
	// LedgerCheck makes token validation also require a live ledger entry.
	LedgerCheck bool   `mapstructure:"ledger_check"`
	DefaultRole string `mapstructure:"default_role"`
	BcryptCost  int    `mapstructure:"bcrypt_cost"`
}

// RateLimitConfig throttles the credential endpoints per client IP.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Requests      int64         `mapstructure:"requests"`
	Window        time.Duration `mapstructure:"window"`
	LocalFallback bool          `mapstructure:"local_fallback"`
}

// AuditConfig selects where authentication events are recorded.
type AuditConfig struct {
	Enabled    bool        `mapstructure:"enabled"`
	Sink       string      `mapstructure:"sink"` // database | kafka
	HMACSecret string      `mapstructure:"hmac_secret"`
	Kafka      KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// RevocationConfig enables the Kafka consumer that revokes every session of a user.
type RevocationConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required")
	}
	key, err := base64.StdEncoding.DecodeString(c.JWT.SecretKey)
	if err != nil {
		return fmt.Errorf("jwt.secret_key must be base64: %w", err)
	}
	if len(key) < constants.MinSecretKeyBytes {
		return fmt.Errorf("jwt.secret_key must decode to at least %d bytes", constants.MinSecretKeyBytes)
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}

	if c.JWT.LedgerRetention < 0 {
		return errors.New("jwt.ledger_retention must not be negative")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("database.host and database.database are required for postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.requests and rate_limit.window must be positive")
	}

	if c.Audit.Enabled {
		switch c.Audit.Sink {
		case "database":
		case "kafka":
			if len(c.Audit.Kafka.Brokers) == 0 || c.Audit.Kafka.Topic == "" {
				return errors.New("audit.kafka.brokers and audit.kafka.topic are required for the kafka sink")
			}
		default:
			return fmt.Errorf("unsupported audit.sink %q", c.Audit.Sink)
		}
	}

	if c.Revocation.Enabled && (len(c.Revocation.Brokers) == 0 || c.Revocation.Topic == "") {
		return errors.New("revocation.brokers and revocation.topic are required when revocation is enabled")
	}

	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	return nil
}
