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

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// writeConfig lays out a file-backed sqlite config with one common seed file.
func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "app.db")
	seeds := filepath.Join(dir, "sql")
	require.NoError(t, os.MkdirAll(filepath.Join(seeds, "common"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seeds, "common", "001_colors.sql"), []byte(
		"CREATE TABLE colors (name TEXT PRIMARY KEY);\nINSERT INTO colors (name) VALUES ('red');\n"), 0o644))

	cfgPath = filepath.Join(dir, "anvil.yaml")
	yaml := fmt.Sprintf(`database:
  connection:
    type: sqlite
    dbname: %q
  init:
    filepath: %q
    environment: test
log:
  level: error
`, dbPath, seeds)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHealthCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "health", "--config", cfgPath)
	require.NoError(t, err)

	var report struct {
		Health struct {
			Healthy   bool `json:"healthy"`
			Connected bool `json:"connected"`
		} `json:"health"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Health.Healthy)
	assert.True(t, report.Health.Connected)
}

func TestMigrateAndSeedCommands(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	_, err := run(t, "migrate", "-c", cfgPath)
	require.NoError(t, err)

	_, err = run(t, "seed", "-c", cfgPath, "-e", "test")
	require.NoError(t, err)

	sqlDB, err := sql.Open(sqliteshim.ShimName, dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()

	var color string
	require.NoError(t, sqlDB.QueryRow("SELECT name FROM colors").Scan(&color))
	assert.Equal(t, "red", color)

	var applied int
	require.NoError(t, sqlDB.QueryRow("SELECT count(*) FROM anvil_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	// the table already exists, so a second plain seed fails
	_, err = run(t, "seed", "-c", cfgPath)
	assert.Error(t, err)
}

func TestUnknownDatabaseType(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "anvil.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  connection:\n    type: oracle\n"), 0o644))

	_, err := run(t, "health", "-c", cfgPath)
	assert.ErrorContains(t, err, "unsupported database type")
}
