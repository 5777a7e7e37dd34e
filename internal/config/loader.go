package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is the prefix of every environment override, e.g. AUTHSVC_JWT_SECRET_KEY.
const EnvPrefix = "AUTHSVC"

// LoadConfig loads the configuration from file and environment variables.
// The returned viper instance can be handed to WatchLogLevel.
func LoadConfig(log logger.Logger) (*Config, *viper.Viper, error) {
	v := newViper()
	v.AddConfigPath("/etc/authsvc/")
	v.AddConfigPath(".")
	cfg, err := load(v, log)
	return cfg, v, err
}

// LoadConfigFile loads the configuration from an explicit file path plus the environment.
func LoadConfigFile(path string, log logger.Logger) (*Config, *viper.Viper, error) {
	v := newViper()
	v.SetConfigFile(path)
	cfg, err := load(v, log)
	return cfg, v, err
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.max_retries", 3)

	v.SetDefault("jwt.expiration", constants.DefaultTokenTTL.String())

	v.SetDefault("security.ledger_check", false)
	v.SetDefault("security.default_role", string(constants.RoleAdmin))
	v.SetDefault("security.bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", constants.DefaultRateLimitRequests)
	v.SetDefault("rate_limit.window", constants.DefaultRateLimitWindow.String())
	v.SetDefault("rate_limit.local_fallback", true)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.sink", "database")
	v.SetDefault("audit.kafka.topic", constants.AuditTopic)
	v.SetDefault("audit.kafka.write_timeout", "5s")
	v.SetDefault("audit.kafka.batch_timeout", "100ms")
	v.SetDefault("audit.kafka.required_acks", 1)

	v.SetDefault("revocation.enabled", false)
	v.SetDefault("revocation.topic", constants.RevocationTopic)
	v.SetDefault("revocation.group_id", constants.RevocationGroupID)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func load(v *viper.Viper, log logger.Logger) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Info(context.Background(), "No config file found, using defaults and environment")
	} else {
		log.Info(context.Background(), "Loaded config file", logger.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WatchLogLevel re-reads log.level whenever the config file changes and hands it to apply.
func WatchLogLevel(v *viper.Viper, log logger.Logger, apply func(constants.LogLevel)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := constants.LogLevel(strings.ToLower(v.GetString("log.level")))
		log.Info(context.Background(), "Config file changed",
			logger.String("file", e.Name),
			logger.String("log_level", string(level)),
		)
		apply(level)
	})
	v.WatchConfig()
}
