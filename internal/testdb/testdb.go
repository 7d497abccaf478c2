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

// Package testdb opens migrated, seeded in-memory databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/fixture"
)

// Open connects a private in-memory sqlite database with the member and
// team tables created. It is closed when t finishes.
func Open(t testing.TB) *bun.DB {
	t.Helper()
	entity.Register()

	cfg := database.DefaultConnectionConfig()
	cfg.HealthCheckInterval = 0
	cfg.EnableReconnect = false
	cfg.SlowQueryTime = 0

	manager := database.NewDatabaseManager(cfg)
	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	err := database.NewMigrationManager(db, nil).
		WithOptions(database.MigrationOptions{EnableForeignKey: true}).
		RunMigrations(ctx)
	require.NoError(t, err)
	return db
}

// Seeded opens a database, starts a transaction that is rolled back when t
// finishes, and seeds the sample data inside it. The database has a single
// connection, so every statement of the test must go through the returned tx.
func Seeded(t testing.TB) (bun.Tx, *fixture.Data) {
	t.Helper()
	db := Open(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })

	data, err := fixture.Seed(ctx, tx)
	require.NoError(t, err)
	return tx, data
}
