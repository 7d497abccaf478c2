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
	"fmt"
	"slices"
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/utils"
)

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the global logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
	}
}

var supportedTypes = []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}

// CreateFromConfig constructs a database manager from cfg after applying
// DB_* environment overrides.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	f.overrideFromEnv(cfg)

	if !slices.Contains(supportedTypes, cfg.Type) {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

// overrideFromEnv lets DB_* variables win over file and flag configuration.
func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	cfg.Port = utils.EnvDefaultInt("DB_PORT", cfg.Port)
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)

	cfg.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	if secs := utils.EnvDefaultInt("DB_CONN_MAX_LIFETIME", -1); secs >= 0 {
		cfg.ConnMaxLifetime = time.Duration(secs) * time.Second
	}

	cfg.EnableReconnect = utils.EnvDefaultBool("DB_ENABLE_RECONNECT", cfg.EnableReconnect)
	if secs := utils.EnvDefaultInt("DB_RECONNECT_INTERVAL", -1); secs >= 0 {
		cfg.ReconnectInterval = time.Duration(secs) * time.Second
	}

	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
}

// InitializeDatabase connects and optionally migrates the schema.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
