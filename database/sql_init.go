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
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/uptrace/bun"
)

const (
	commonEnvironment = "common"
	unorderedFile     = 999
)

var fileOrderPattern = regexp.MustCompile(`^(\d+)_`)

// SQLInitManager discovers and executes seed SQL files. Files under
// <root>/common run first, then <root>/environments/<env>, each group in
// NNN_ prefix order.
type SQLInitManager struct {
	db     *bun.DB
	cfg    DataInitConfig
	logger Logger
}

// SQLFileInfo describes a SQL file to be executed during initialization.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
	ModTime     time.Time
}

// ExecutionResult is the outcome of one SQL file.
type ExecutionResult struct {
	File         string
	Success      bool
	Error        error
	Duration     time.Duration
	RowsAffected int64
	Skipped      int
}

func NewSQLInitManager(db *bun.DB, cfg DataInitConfig) *SQLInitManager {
	if cfg.Filepath == "" {
		cfg.Filepath = DefaultConfig().DataInitConfig.Filepath
	}
	if cfg.Environment == "" {
		cfg.Environment = DefaultConfig().DataInitConfig.Environment
	}
	return &SQLInitManager{db: db, cfg: cfg, logger: GetLogger()}
}

func (s *SQLInitManager) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// ExecuteInitialization runs every discovered file. Without IgnoreDuplicates
// all files share one transaction; with it each statement runs on its own so
// a duplicate row does not abort the rest.
func (s *SQLInitManager) ExecuteInitialization(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if s.cfg.IgnoreDuplicates {
		_, err := s.Execute(ctx, s.db)
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := s.Execute(ctx, tx)
		return err
	})
}

// Execute runs the discovered files on db and stops at the first failure.
func (s *SQLInitManager) Execute(ctx context.Context, db bun.IDB) ([]ExecutionResult, error) {
	s.logger.Info("Starting SQL initialization", "environment", s.cfg.Environment, "sql_path", s.cfg.Filepath)

	files, err := s.GetSQLFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL files found to execute")
		return nil, nil
	}

	results := make([]ExecutionResult, 0, len(files))
	for _, file := range files {
		result := s.executeFile(ctx, db, file)
		results = append(results, result)
		if !result.Success {
			s.logger.Error("SQL file execution failed", "file", result.File, "error", result.Error)
			return results, fmt.Errorf("SQL file execution failed %s: %w", result.File, result.Error)
		}
		s.logger.Info("SQL file executed successfully",
			"file", result.File,
			"duration", result.Duration.String(),
			"rows_affected", result.RowsAffected,
			"skipped", result.Skipped,
		)
	}

	s.logger.Info("SQL initialization completed", "total_files", len(results), "environment", s.cfg.Environment)
	return results, nil
}

// GetSQLFiles lists the common files followed by the environment files. A
// missing directory contributes nothing.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	commonFiles, err := filesFromDir(filepath.Join(s.cfg.Filepath, commonEnvironment), commonEnvironment)
	if err != nil {
		return nil, fmt.Errorf("failed to get common SQL files: %w", err)
	}
	envFiles, err := filesFromDir(filepath.Join(s.cfg.Filepath, "environments", s.cfg.Environment), s.cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to get environment SQL files: %w", err)
	}
	return append(commonFiles, envFiles...), nil
}

func filesFromDir(dir, environment string) ([]SQLFileInfo, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []SQLFileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".sql") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, SQLFileInfo{
			Path:        path,
			Name:        d.Name(),
			Order:       parseFileOrder(d.Name()),
			Environment: environment,
			ModTime:     info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func parseFileOrder(filename string) int {
	matches := fileOrderPattern.FindStringSubmatch(filename)
	if len(matches) < 2 {
		return unorderedFile
	}
	order, err := strconv.Atoi(matches[1])
	if err != nil {
		return unorderedFile
	}
	return order
}

func (s *SQLInitManager) executeFile(ctx context.Context, db bun.IDB, file SQLFileInfo) ExecutionResult {
	start := time.Now()
	result := ExecutionResult{File: file.Path}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read file: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	text := string(content)
	if s.cfg.RenderTemplate {
		if text, err = s.render(text); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	for _, stmt := range SplitSQLStatements(text) {
		res, execErr := db.ExecContext(ctx, stmt)
		if execErr != nil {
			if s.cfg.IgnoreDuplicates && IsDuplicateKey(execErr) {
				s.logger.Debug("Skipping duplicate seed row", "file", file.Name, "error", execErr)
				result.Skipped++
				continue
			}
			result.Error = fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			result.Duration = time.Since(start)
			return result
		}
		if n, err := res.RowsAffected(); err == nil {
			result.RowsAffected += n
		}
	}
	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// render expands {{.NAME}} with the process environment, plus ENVIRONMENT
// and TIMESTAMP.
func (s *SQLInitManager) render(content string) (string, error) {
	tmpl, err := template.New("sql").Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	vars["ENVIRONMENT"] = s.cfg.Environment
	vars["TIMESTAMP"] = time.Now().Format(time.DateTime)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// SplitSQLStatements splits content on semicolons outside quoted text and
// drops "--" line comments and empty statements.
func SplitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
		comment    bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case comment:
			if r == '\n' {
				comment = false
				current.WriteRune(' ')
			}
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				// doubled quote is an escaped quote
				if i+1 < len(runes) && runes[i+1] == quote {
					current.WriteRune(runes[i+1])
					i++
				} else {
					quote = 0
				}
			}
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			i++
		case r == '\'' || r == '"' || r == '`':
			quote = r
			current.WriteRune(r)
		case r == ';':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return statements
}
