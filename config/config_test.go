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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)

	db := cfg.ConfigLoader()
	assert.Equal(t, "sqlite", db.ConnectionConfig.Type)
	assert.Equal(t, ":memory:", db.ConnectionConfig.DBName)
	assert.Equal(t, time.Hour, db.ConnectionConfig.ConnMaxLifetime)
	assert.True(t, db.DataMigrateConfig.EnableMigrateOnStartup)
	assert.True(t, db.DataMigrateConfig.EnableForeignKey)
	assert.False(t, db.DataInitConfig.AutoInitOnStartup)
}

func TestNewConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "quarry.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  port: 9000
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    dbname: quarry
    slow_query_time: 500ms
  init:
    auto_init_on_startup: true
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("QUARRY_LOGGING_LEVEL=debug\nQUARRY_SERVER_HOST=dotenv\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("QUARRY_LOGGING_LEVEL")
		_ = os.Unsetenv("QUARRY_SERVER_HOST")
	})
	t.Setenv("QUARRY_SERVER_HOST", "127.0.0.1")
	t.Setenv("QUARRY_DATABASE_CONNECTION_MAX_OPEN_CONNS", "7")

	cfg, err := NewConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr())
	assert.Equal(t, "debug", cfg.Logging.Level)

	conn := cfg.ConfigLoader().ConnectionConfig
	assert.Equal(t, "postgres", conn.Type)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, 7, conn.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)
	assert.Equal(t, 10, conn.MaxIdleConns)
	assert.True(t, cfg.Database.DataInitConfig.AutoInitOnStartup)
}

func TestNewConfigErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := NewConfig("missing.yaml")
	assert.ErrorContains(t, err, "read config missing.yaml")

	t.Setenv("QUARRY_SERVER_PORT", "0")
	_, err = NewConfig("")
	assert.ErrorContains(t, err, "server.port is required")
}

func TestConfigLoaderReturnsCopy(t *testing.T) {
	cfg := &Config{}
	cfg.Database.ConnectionConfig.Type = "mysql"
	loaded := cfg.ConfigLoader()
	loaded.ConnectionConfig.Type = "postgres"
	assert.Equal(t, "mysql", cfg.Database.ConnectionConfig.Type)
}
