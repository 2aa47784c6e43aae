package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from an optional yaml file and
// COURIER-prefixed environment variables. A missing file is fine; env vars
// alone can configure the service.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/courier-back")
	}

	v.SetEnvPrefix("COURIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret must be configured")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("redis.port", 6379)

	v.SetDefault("kafka.topic", "courier.auth.events")
	v.SetDefault("kafka.source", "/courier-back")

	// Registered empty so AutomaticEnv can populate it; LoadConfig rejects a
	// blank secret.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "courier-back")
	v.SetDefault("jwt.access_token_ttl", "15m")

	v.SetDefault("session.refresh_token_ttl", "720h")   // 30 days
	v.SetDefault("session.device_id_max_age", "8760h")  // one year
	v.SetDefault("session.secure_cookies", true)

	v.SetDefault("security.password_hash.memory", 65536)
	v.SetDefault("security.password_hash.iterations", 3)
	v.SetDefault("security.password_hash.parallelism", 2)
	v.SetDefault("security.password_hash.salt_length", 16)
	v.SetDefault("security.password_hash.key_length", 32)
	v.SetDefault("security.login_limit.limit", 10)
	v.SetDefault("security.login_limit.window", "1m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
