/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the application configuration from an optional YAML
// file, a .env file and QUARRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/utils"
)

const EnvPrefix = "QUARRY"

// EnvFile is read before the environment; variables already set win.
var EnvFile = ".env"

// Config holds application configuration.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Database database.Config `mapstructure:"database"`
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// ConfigLoader returns a copy of the database section.
func (c *Config) ConfigLoader() *database.Config {
	cfg := c.Database
	return &cfg
}

// ServerAddr returns host:port for HTTP server binding.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port is required")
	}
	if c.Database.ConnectionConfig.Type == "" {
		return errors.New("database.connection.type is required")
	}
	return nil
}

// ApplyLogging configures every logger from the logging section.
func (c *Config) ApplyLogging() {
	if c.Logging.Format != "" {
		utils.ConfigureFormat(c.Logging.Format)
	}
	if c.Logging.Level != "" {
		utils.ConfigureLogLevel(c.Logging.Level)
	}
}

// NewConfig loads configuration with typed defaults. file may be empty; a
// named file that cannot be read is an error.
func NewConfig(file string) (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(EnvFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 3*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	db := database.DefaultConfig()
	conn := db.ConnectionConfig
	v.SetDefault("database.connection.type", conn.Type)
	v.SetDefault("database.connection.host", conn.Host)
	v.SetDefault("database.connection.port", conn.Port)
	v.SetDefault("database.connection.username", conn.Username)
	v.SetDefault("database.connection.password", conn.Password)
	v.SetDefault("database.connection.dbname", conn.DBName)
	v.SetDefault("database.connection.sslmode", conn.SSLMode)
	v.SetDefault("database.connection.max_idle_conns", conn.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", conn.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", conn.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", conn.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", conn.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", conn.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", conn.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", conn.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", conn.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", conn.MaxReconnectTries)
	v.SetDefault("database.connection.health_check_interval", conn.HealthCheckInterval)
	v.SetDefault("database.connection.enable_query_log", conn.EnableQueryLog)
	v.SetDefault("database.connection.slow_query_time", conn.SlowQueryTime)

	v.SetDefault("database.migrate.enable_migrate_on_startup", db.DataMigrateConfig.EnableMigrateOnStartup)
	v.SetDefault("database.migrate.enable_foreign_key", db.DataMigrateConfig.EnableForeignKey)
	v.SetDefault("database.migrate.foreign_key_file", db.DataMigrateConfig.ForeignKeyFile)
	v.SetDefault("database.init.auto_init_on_startup", db.DataInitConfig.AutoInitOnStartup)
	v.SetDefault("database.init.auto_init_on_migration", db.DataInitConfig.AutoInitOnMigration)
}
