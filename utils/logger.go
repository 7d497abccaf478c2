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

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}

	outputMu      sync.RWMutex
	consoleOutput io.Writer = os.Stdout

	baseLevel     = ParseLogLevel(EnvDefaultString("QUARRY_LOG_LEVEL", "info"))
	consoleFormat = EnvDefaultString("QUARRY_LOG_FORMAT", "text")
	fileLogDir    = EnvDefaultString("QUARRY_LOG_DIR", "")
	fileMaxAge    = EnvDefaultInt("QUARRY_LOG_MAX_AGE_DAYS", 7)
)

// ConfigureOutput redirects console output of every logger, e.g. to a buffer in tests.
func ConfigureOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	consoleOutput = w
}

func output() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return consoleOutput
}

// ConfigureFormat selects "text" or "json" for loggers created afterwards.
func ConfigureFormat(format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		consoleFormat = "json"
		return
	}
	consoleFormat = "text"
}

// ConfigureFileLog enables daily files under dir for loggers created afterwards.
func ConfigureFileLog(dir string, maxAgeDays int) {
	fileLogDir = dir
	if maxAgeDays >= 0 {
		fileMaxAge = maxAgeDays
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// GetLogger returns the named logger, creating it on first use.
func GetLogger(name string) *logrus.Logger {
	loggerRegistryMu.RLock()
	l, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if ok {
		return l
	}
	return NewLogger(name)
}

// SetLoggerLevel changes one registered logger; it reports whether name exists.
func SetLoggerLevel(name string, lvl string) bool {
	loggerRegistryMu.RLock()
	l, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(lvl))
	return true
}

// ConfigureLogLevel sets the level of every registered and future logger.
func ConfigureLogLevel(lvl string) {
	baseLevel = ParseLogLevel(lvl)
	loggerRegistryMu.RLock()
	for _, l := range loggerRegistry {
		l.SetLevel(baseLevel)
	}
	loggerRegistryMu.RUnlock()
	logrus.SetLevel(baseLevel)
}

type consoleHook struct {
	formatter logrus.Formatter
}

func (h *consoleHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *consoleHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = output().Write(b)
	return err
}

// NewLogger creates and registers a logger that writes through the console
// hook, and to daily files when a log directory is configured.
func NewLogger(name string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(baseLevel)
	l.SetReportCaller(true)
	if consoleFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&TextLogFormatter{LoggerName: name, NameWidth: 10})
	}
	l.AddHook(&consoleHook{formatter: l.Formatter})
	if fileLogDir != "" {
		if err := AddDailyFileHook(l, name, fileLogDir, fileMaxAge); err != nil {
			fmt.Fprintf(os.Stderr, "logger %s: file log disabled: %v\n", name, err)
		}
	}
	RegisterLogger(name, l)
	return l
}

// TextLogFormatter renders `time LEVEL pid --- [name] caller : message k=v`.
type TextLogFormatter struct {
	LoggerName string
	NameWidth  int
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.TraceLevel: color.New(color.FgHiBlack),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.FatalLevel: color.New(color.FgHiRed, color.Bold),
	logrus.PanicLevel: color.New(color.FgHiRed, color.Bold),
}

var (
	nameColor  = color.New(color.FgCyan)
	faintColor = color.New(color.Faint)
)

func (f *TextLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	lvl := fmt.Sprintf("%5s", strings.ToUpper(entry.Level.String()))
	if c, ok := levelColors[entry.Level]; ok {
		lvl = c.Sprint(lvl)
	}
	name := f.LoggerName
	if f.NameWidth > 0 && len(name) > f.NameWidth {
		name = name[:f.NameWidth]
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(lvl)
	fmt.Fprintf(&b, " %-6d --- ", os.Getpid())
	b.WriteString(nameColor.Sprintf("[%*s]", f.NameWidth, name))
	if entry.Caller != nil {
		b.WriteByte(' ')
		b.WriteString(faintColor.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line))
	}
	b.WriteString(" : ")
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSONLogFormatter writes one JSON object per entry. Request fields set by
// the HTTP access log are promoted to top level keys.
type JSONLogFormatter struct {
	LoggerName string
}

type jsonLogRecord struct {
	Time        string                 `json:"time"`
	Level       string                 `json:"level"`
	Logger      string                 `json:"logger"`
	Caller      string                 `json:"caller,omitempty"`
	Message     string                 `json:"message"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	StatusCode  int                    `json:"status_code,omitempty"`
	LatencyTime string                 `json:"latency_time,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		s, isString := v.(string)
		switch {
		case k == "req_uri" && isString:
			rec.Path = s
		case k == "req_method" && isString:
			rec.Method = s
		case k == "client_ip" && isString:
			rec.ClientIP = s
		case k == "latency_time" && isString:
			rec.LatencyTime = s
		case k == "status_code":
			if n, ok := v.(int); ok {
				rec.StatusCode = n
			} else {
				extra[k] = v
			}
		default:
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

type dailyFileHook struct {
	dir        string
	name       string
	maxAgeDays int
	formatter  logrus.Formatter

	mu      sync.Mutex
	curDate string
	file    *os.File
}

// AddDailyFileHook appends entries of l to dir/<name>-<date>.log, removing
// files older than maxAgeDays when the date rolls over.
func AddDailyFileHook(l *logrus.Logger, name, dir string, maxAgeDays int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	l.AddHook(&dailyFileHook{
		dir:        dir,
		name:       strings.ToLower(name),
		maxAgeDays: maxAgeDays,
		formatter:  &JSONLogFormatter{LoggerName: name},
	})
	return nil
}

func (h *dailyFileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *dailyFileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	date := e.Time.Format("2006-01-02")
	if h.file == nil || date != h.curDate {
		if err := h.rotate(date); err != nil {
			return err
		}
	}
	_, err = h.file.Write(b)
	return err
}

func (h *dailyFileHook) rotate(date string) error {
	if h.file != nil {
		_ = h.file.Close()
	}
	f, err := os.OpenFile(filepath.Join(h.dir, h.name+"-"+date+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	h.file, h.curDate = f, date
	h.cleanup()
	return nil
}

func (h *dailyFileHook) cleanup() {
	if h.maxAgeDays <= 0 {
		return
	}
	matches, _ := filepath.Glob(filepath.Join(h.dir, h.name+"-*.log"))
	cutoff := time.Now().AddDate(0, 0, -h.maxAgeDays)
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.ModTime().Before(cutoff) {
			_ = os.Remove(m)
		}
	}
}
