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
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

func openMemory(t *testing.T) *bun.DB {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.HealthCheckInterval = 0
	cfg.EnableReconnect = false
	cfg.SlowQueryTime = 0

	manager := NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager.GetDB()
}

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		code SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", sql.ErrNoRows, true, NoRowsErr},
		{"wrapped no rows", fmt.Errorf("load member: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql unknown", &mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{"postgres fk", &pq.Error{Code: "23503"}, true, ForeignKeyViolationErr},
		{"postgres missing table", fmt.Errorf("query: %w", &pq.Error{Code: "42P01"}), true, NoTableErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: teams.name (2067)"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: members.age"), true, NotNullViolationErr},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"sqlite column", errors.New("no such column: member.nickname"), true, NoColumnErr},
		{"other", errors.New("connection refused"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, code := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestIsDuplicateKeyFromDriver(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	_, err := db.NewCreateTable().Model((*widget)(nil)).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&widget{Name: "bolt"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&widget{Name: "bolt"}).Exec(ctx)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
	assert.False(t, IsDuplicateKey(sql.ErrNoRows))
}
