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
	"io"
	"os"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// QueryLogEnv toggles the console query log: "0" off, "1" failed queries
// only, "2" every query.
const QueryLogEnv = "QUARRY_SQL_LOG"

var silentMode atomic.Bool

// EnableBunSqlSilent mutes the query hooks, e.g. while migrations run.
func EnableBunSqlSilent(b bool) {
	silentMode.Store(b)
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var (
	hookTagColor   = color.New(color.FgCyan)
	hookErrorColor = color.New(color.BgRed, color.FgHiWhite)
	defaultOpColor = color.New(color.FgRed)
)

// QueryHook prints executed statements colored by operation.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

type QueryHookOption func(*QueryHook)

func WithQueryLogEnv(name string) QueryHookOption    { return func(h *QueryHook) { h.envName = name } }
func WithQueryLogEnabled(on bool) QueryHookOption    { return func(h *QueryHook) { h.enabled = on } }
func WithQueryLogVerbose(on bool) QueryHookOption    { return func(h *QueryHook) { h.verbose = on } }
func WithQueryLogWriter(w io.Writer) QueryHookOption { return func(h *QueryHook) { h.writer = w } }

// NewQueryHook returns a hook logging failed queries to stdout, overridable
// through QueryLogEnv.
func NewQueryHook(opts ...QueryHookOption) *QueryHook {
	h := &QueryHook{envName: QueryLogEnv, enabled: true, writer: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silentMode.Load() {
		return
	}
	enabled, verbose := h.enabled, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		env = strings.TrimSpace(env)
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		hookTagColor.Sprintf("%8s", "[BUN]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", operationColor(event.Operation()).Sprint(event.Query),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", hookErrorColor.Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func operationColor(op string) *color.Color {
	if c, ok := operationColors[op]; ok {
		return c
	}
	return defaultOpColor
}

// slowQueryHook reports successful statements slower than slowTime.
type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil || silentMode.Load() {
		return
	}
	if d := time.Since(event.StartTime); d > h.slowTime {
		h.logger.Warn("Database slow query detected",
			"duration", d,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
