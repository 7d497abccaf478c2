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

	"github.com/uptrace/bun"
)

var (
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
	DB            *bun.DB
)

// GetDB returns the global Bun database instance.
func GetDB() *bun.DB {
	if globalFactory != nil {
		return globalFactory.GetDB()
	}
	return DB
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

// GetDatabaseFactory returns the global database factory.
func GetDatabaseFactory() *BaseDatabaseFactory {
	return globalFactory
}

// InitDB installs cfg as the global configuration and initializes the
// global database, migrating and seeding as cfg requests.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	globalConfig = cfg
	return InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

// InitDatabaseWithOptions initializes the database and optionally runs migrations.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	ctx := context.Background()
	if err := factory.InitializeDatabase(ctx, runMigrations); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := manager.InitData(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	globalFactory = factory
	DB = manager.GetDB()
	return DB, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if globalFactory == nil {
		return nil
	}
	err := globalFactory.Close()
	globalFactory, DB = nil, nil
	return err
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if globalFactory != nil {
		return globalFactory.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	if globalFactory != nil {
		return globalFactory.GetStats()
	}
	return &DBStats{}
}

// RunMigrations migrates the global database.
func RunMigrations(ctx context.Context) error {
	manager := GetDatabaseManager()
	if manager == nil {
		return fmt.Errorf("database not initialized")
	}
	return manager.RunMigrations(ctx)
}

// InitData runs the registered seeders against the global database.
func InitData(ctx context.Context) error {
	manager := GetDatabaseManager()
	if manager == nil {
		return fmt.Errorf("database not initialized")
	}
	return manager.InitData(ctx)
}
