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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, running migrations, seeding data, and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RunMigrations(ctx context.Context) error
	InitData(ctx context.Context) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// AbstractDatabaseConfigProvider exposes configuration loading.
type AbstractDatabaseConfigProvider interface {
	ConfigLoader() *Config
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
// For sqlite, DBName is a file stem or ":memory:".
type ConnectionConfig struct {
	Type                string        `json:"type" mapstructure:"type"` // postgres, mysql, sqlite
	Host                string        `json:"host" mapstructure:"host"`
	Port                int           `json:"port" mapstructure:"port"`
	Username            string        `json:"username" mapstructure:"username"`
	Password            string        `json:"password" mapstructure:"password"`
	DBName              string        `json:"dbname" mapstructure:"dbname"`
	SSLMode             string        `json:"sslmode" mapstructure:"sslmode"`
	MaxIdleConns        int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns        int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime     time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	ConnectTimeout      time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	EnableReconnect     bool          `json:"enable_reconnect" mapstructure:"enable_reconnect"`
	ReconnectInterval   time.Duration `json:"reconnect_interval" mapstructure:"reconnect_interval"`
	MaxReconnectTries   int           `json:"max_reconnect_tries" mapstructure:"max_reconnect_tries"`
	HealthCheckInterval time.Duration `json:"health_check_interval" mapstructure:"health_check_interval"`
	EnableQueryLog      bool          `json:"enable_query_log" mapstructure:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time" mapstructure:"slow_query_time"`
}

// IsMemory reports whether the config points at a private in-memory sqlite database.
func (c *ConnectionConfig) IsMemory() bool {
	return (c.Type == "sqlite" || c.Type == "sqlite3") && (c.DBName == ":memory:" || c.DBName == "")
}

// DataMigrateConfig controls schema migration behavior on startup.
type DataMigrateConfig struct {
	EnableMigrateOnStartup bool   `json:"enable_migrate_on_startup" mapstructure:"enable_migrate_on_startup"`
	EnableForeignKey       bool   `json:"enable_foreign_key" mapstructure:"enable_foreign_key"`
	ForeignKeyFile         string `json:"foreign_key_file" mapstructure:"foreign_key_file"`
}

// DataInitConfig controls seeding through the registered seeders.
type DataInitConfig struct {
	AutoInitOnStartup   bool `json:"auto_init_on_startup" mapstructure:"auto_init_on_startup"`
	AutoInitOnMigration bool `json:"auto_init_on_migration" mapstructure:"auto_init_on_migration"`
}

// Config aggregates connection, migration, and data initialization settings.
type Config struct {
	ConnectionConfig  ConnectionConfig  `json:"connection_config" mapstructure:"connection"`
	DataMigrateConfig DataMigrateConfig `json:"data_migrate_config" mapstructure:"migrate"`
	DataInitConfig    DataInitConfig    `json:"data_init_config" mapstructure:"init"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:                "sqlite",
		DBName:              ":memory:",
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     time.Minute * 30,
		ConnectTimeout:      time.Second * 10,
		ReadTimeout:         time.Second * 30,
		WriteTimeout:        time.Second * 30,
		EnableReconnect:     true,
		ReconnectInterval:   time.Second * 5,
		MaxReconnectTries:   3,
		HealthCheckInterval: time.Minute * 5,
		EnableQueryLog:      false,
		SlowQueryTime:       time.Second * 2,
	}
}

// DefaultConfig wraps DefaultConnectionConfig with foreign keys enabled and
// migrations on startup.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		DataMigrateConfig: DataMigrateConfig{
			EnableMigrateOnStartup: true,
			EnableForeignKey:       true,
		},
	}
}

// ForeignKeyConfig is the YAML structure that lists foreign key constraints.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraintConfig `yaml:"foreign_keys"`
}

// ForeignKeyConstraintConfig describes a single foreign key in configuration.
type ForeignKeyConstraintConfig struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"`
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
	Description     string `yaml:"description,omitempty"`
}

func (fkc *ForeignKeyConstraintConfig) ToForeignKeyConstraint() ForeignKeyConstraint {
	return ForeignKeyConstraint{
		Table:           fkc.Table,
		Column:          fkc.Column,
		ReferenceTable:  fkc.ReferenceTable,
		ReferenceColumn: fkc.ReferenceColumn,
		OnDelete:        fkc.OnDelete,
		OnUpdate:        fkc.OnUpdate,
		ConstraintName:  fkc.ConstraintName,
	}
}

// ConfigurableForeignKeyManager loads constraints from a YAML file and falls
// back to the registered constraints when the file is missing or invalid.
type ConfigurableForeignKeyManager struct {
	*ForeignKeyManager
	configPath string
}

func NewConfigurableForeignKeyManager(logger Logger, configPath string) *ConfigurableForeignKeyManager {
	manager := &ConfigurableForeignKeyManager{configPath: configPath}
	constraints, err := manager.loadFromConfig()
	if err != nil {
		if logger != nil && configPath != "" {
			logger.Debug("Foreign key file unusable, using registered constraints", "error", err, "config_path", configPath)
		}
		constraints = RegisteredForeignKeys()
	}
	manager.ForeignKeyManager = &ForeignKeyManager{constraints: constraints, logger: logger}
	return manager
}

func (cfm *ConfigurableForeignKeyManager) loadFromConfig() ([]ForeignKeyConstraint, error) {
	if cfm.configPath == "" {
		return nil, fmt.Errorf("no foreign key file configured")
	}
	data, err := os.ReadFile(cfm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ForeignKeyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	constraints := make([]ForeignKeyConstraint, 0, len(config.ForeignKeys))
	for _, fkConfig := range config.ForeignKeys {
		constraints = append(constraints, fkConfig.ToForeignKeyConstraint())
	}
	return constraints, nil
}

// ReloadConfig refreshes constraints from the YAML file.
func (cfm *ConfigurableForeignKeyManager) ReloadConfig() error {
	constraints, err := cfm.loadFromConfig()
	if err != nil {
		return err
	}
	cfm.constraints = constraints
	return nil
}

// ExportToConfig writes the current constraints as YAML to outputPath.
func (cfm *ConfigurableForeignKeyManager) ExportToConfig(outputPath string) error {
	config := ForeignKeyConfig{ForeignKeys: make([]ForeignKeyConstraintConfig, 0, len(cfm.constraints))}
	for _, c := range cfm.constraints {
		config.ForeignKeys = append(config.ForeignKeys, ForeignKeyConstraintConfig{
			Table:           c.Table,
			Column:          c.Column,
			ReferenceTable:  c.ReferenceTable,
			ReferenceColumn: c.ReferenceColumn,
			OnDelete:        c.OnDelete,
			OnUpdate:        c.OnUpdate,
			ConstraintName:  c.ConstraintName,
			Description:     fmt.Sprintf("%s.%s -> %s.%s", c.Table, c.Column, c.ReferenceTable, c.ReferenceColumn),
		})
	}

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func (cfm *ConfigurableForeignKeyManager) GetConfigPath() string {
	return cfm.configPath
}
