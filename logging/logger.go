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

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

// Config controls the level, format and optional file sink of every logger
// created by NewLogger.
type Config struct {
	Level  string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT"` // text or json
	File   string `yaml:"file" json:"file" env:"LOG_FILE"`
}

var (
	mu           sync.RWMutex
	registry     = map[string]*logrus.Logger{}
	baseLevel    = ParseLevel(EnvDefaultString("LOG_LEVEL", "info"))
	format       = normalizeFormat(EnvDefaultString("LOG_FORMAT", "text"))
	fileSink     *os.File
	fileSinkPath string
)

var console io.Writer = os.Stdout

// Configure applies cfg to all registered loggers and to loggers created later.
func Configure(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Format != "" {
		format = normalizeFormat(cfg.Format)
	}
	if cfg.Level != "" {
		baseLevel = ParseLevel(cfg.Level)
	}
	if cfg.File != fileSinkPath {
		if err := openFileSink(cfg.File); err != nil {
			return err
		}
	}
	for name, l := range registry {
		l.SetLevel(baseLevel)
		l.SetFormatter(newFormatter(name, format))
		l.SetOutput(output())
	}
	logrus.SetLevel(baseLevel)
	return nil
}

// SetOutput replaces the console writer; tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	for _, l := range registry {
		l.SetOutput(output())
	}
}

func openFileSink(path string) error {
	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
	fileSinkPath = path
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	fileSink = f
	return nil
}

func output() io.Writer {
	if fileSink != nil {
		return io.MultiWriter(console, fileSink)
	}
	return console
}

func normalizeFormat(s string) string {
	if strings.ToLower(strings.TrimSpace(s)) == "json" {
		return "json"
	}
	return "text"
}

func newFormatter(name, f string) logrus.Formatter {
	if f == "json" {
		return &JSONFormatter{LoggerName: name}
	}
	return &ConsoleFormatter{LoggerName: name, NameWidth: 10, CallerWidth: 25, Color: fileSink == nil}
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(output())
	l.SetLevel(baseLevel)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter(name, format))
	registry[name] = l
	return l
}

func ParseLevel(s string) logrus.Level {
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

// SetLevel sets the level on every registered logger.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	baseLevel = ParseLevel(level)
	for _, l := range registry {
		l.SetLevel(baseLevel)
	}
	logrus.SetLevel(baseLevel)
}

// SetLoggerLevel sets the level of a single named logger.
func SetLoggerLevel(name string, level string) bool {
	mu.RLock()
	l, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLevel(level))
	return true
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
