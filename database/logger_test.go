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
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	logger := NewDefaultLogger(l)
	logger.SetLevel(LogLevelInfo)
	logger.Debug("hidden")
	logger.Info("Migration executed", "version", "001", "error", errors.New("boom"), "dangling")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Migration executed", entry["msg"])
	assert.Equal(t, "001", entry["version"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotContains(t, entry, "dangling")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
}
