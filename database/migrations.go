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
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations,alias:sm"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// Seeder writes initial rows. Seeders run in registration order.
type Seeder func(ctx context.Context, db bun.IDB) error

type namedSeeder struct {
	name string
	fn   Seeder
}

var (
	seedersMu sync.RWMutex
	seeders   []namedSeeder
)

// RegisterSeeder adds a seeder under name; a second registration of the
// same name replaces the first.
func RegisterSeeder(name string, fn Seeder) {
	seedersMu.Lock()
	defer seedersMu.Unlock()
	for i, s := range seeders {
		if s.name == name {
			seeders[i].fn = fn
			return
		}
	}
	seeders = append(seeders, namedSeeder{name: name, fn: fn})
}

func registeredSeeders() []namedSeeder {
	seedersMu.RLock()
	defer seedersMu.RUnlock()
	return slices.Clone(seeders)
}

// MigrationOptions selects the optional migration steps.
type MigrationOptions struct {
	EnableForeignKey bool
	ForeignKeyFile   string
	SeedOnMigration  bool
}

func defaultMigrationOptions() MigrationOptions {
	if globalConfig == nil {
		return MigrationOptions{EnableForeignKey: true}
	}
	return MigrationOptions{
		EnableForeignKey: globalConfig.DataMigrateConfig.EnableForeignKey,
		ForeignKeyFile:   globalConfig.DataMigrateConfig.ForeignKeyFile,
		SeedOnMigration:  globalConfig.DataInitConfig.AutoInitOnMigration,
	}
}

// MigrationManager coordinates schema migrations and seeding.
type MigrationManager struct {
	db      *bun.DB
	logger  Logger
	options MigrationOptions
}

// NewMigrationManager uses the global configuration when one was installed
// by InitDB, and enables foreign keys otherwise.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	return &MigrationManager{db: db, logger: logger, options: defaultMigrationOptions()}
}

func (mm *MigrationManager) WithOptions(opts MigrationOptions) *MigrationManager {
	mm.options = opts
	return mm
}

func (mm *MigrationManager) isSQLite() bool {
	return mm.db.Dialect().Name() == dialect.SQLite
}

// RunMigrations creates the tracking table if needed and applies every
// pending migration in version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range mm.getAllMigrations() {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	if mm.logger != nil {
		mm.logger.Info("Database migrations completed")
	}
	return nil
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create registered model tables",
			Up:          mm.createBaseTables,
			Down:        mm.dropBaseTables,
		},
	}
	// sqlite cannot ALTER TABLE ADD CONSTRAINT; its keys are created inline.
	if mm.options.EnableForeignKey && !mm.isSQLite() {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "add_foreign_keys",
			Description: "Add table foreign key constraints",
			Up:          mm.addForeignKeys,
		})
	}
	if mm.options.SeedOnMigration {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          mm.seedInitialData,
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if mm.logger != nil {
		mm.logger.Info("Migration executed", "version", migration.Version, "name", migration.Name)
	}
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if mm.options.EnableForeignKey && mm.isSQLite() {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) dropBaseTables(ctx context.Context, db bun.IDB) error {
	models := RegisteredModelInstances()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", models[i], err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkManager := NewConfigurableForeignKeyManager(mm.logger, mm.options.ForeignKeyFile)
	if errs := fkManager.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			if mm.logger != nil {
				mm.logger.Debug("Foreign key constraint validation failed", "error", err)
			}
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return fkManager.AddAllForeignKeys(ctx, db)
}

// InitData runs every registered seeder in one transaction.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return mm.seedInitialData(ctx, tx)
	})
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	for _, s := range registeredSeeders() {
		if err := s.fn(ctx, db); err != nil {
			return fmt.Errorf("seeder %s: %w", s.name, err)
		}
		if mm.logger != nil {
			mm.logger.Info("Seeder completed", "seeder", s.name)
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// RollbackMigration reverts an applied migration that has a Down step.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	idx := slices.IndexFunc(mm.getAllMigrations(), func(m MigrationItem) bool { return m.Version == version })
	if idx < 0 {
		return fmt.Errorf("unknown migration version: %s", version)
	}
	migration := mm.getAllMigrations()[idx]
	if migration.Down == nil {
		return fmt.Errorf("migration %s cannot be rolled back", version)
	}
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*Migration)(nil)).Where("version = ?", version).Exec(ctx)
		return err
	})
}
