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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/anvil/internal/testutil"
)

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.example")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	t.Setenv("DB_RECONNECT_INTERVAL", "7s")

	cfg := &ConnectionConfig{Type: "postgres", Host: "localhost", Port: 5432, Username: "app"}
	require.NoError(t, OverrideFromEnv(cfg))

	assert.Equal(t, "db.example", cfg.Host)
	assert.Equal(t, 15432, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "app", cfg.Username)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, 7*time.Second, cfg.ReconnectInterval)
}

func TestOverrideFromEnvInvalid(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	assert.Error(t, OverrideFromEnv(&ConnectionConfig{}))
}

func TestCreateFromConfig(t *testing.T) {
	f := NewDatabaseFactory()

	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)

	_, err = f.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type: oracle")

	manager, err := f.CreateFromConfig(memoryConfig(t))
	require.NoError(t, err)
	assert.Same(t, manager, f.GetManager())
	assert.Nil(t, f.GetDB())
}

func TestFactoryWithoutManager(t *testing.T) {
	f := NewDatabaseFactory()
	ctx := context.Background()

	assert.Error(t, f.InitializeDatabase(ctx, nil))
	assert.False(t, f.GetHealthStatus(ctx).Healthy)
	assert.Equal(t, &DBStats{}, f.GetStats())
	assert.NoError(t, f.Close())
}

func TestInitializeDatabaseRunsStartupSteps(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeSQL(t, root, "common/001_accounts.sql",
		"INSERT INTO accounts (uuid, name) VALUES ('6f1c2d1e-0000-4000-8000-000000000020', 'startup');")
	RegisterModels((*account)(nil))

	cfg := DefaultConfig()
	cfg.ConnectionConfig = *memoryConfig(t)
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true
	cfg.DataInitConfig = DataInitConfig{AutoInitOnStartup: true, Filepath: root, Environment: "dev"}

	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(&cfg.ConnectionConfig)
	require.NoError(t, err)
	require.NoError(t, f.InitializeDatabase(ctx, cfg))
	t.Cleanup(func() { _ = f.Close() })

	count, err := f.GetDB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGlobalLifecycle(t *testing.T) {
	ctx := context.Background()
	RegisterModels((*account)(nil))

	cfg := DefaultConfig()
	cfg.ConnectionConfig = *memoryConfig(t)
	cfg.DataInitConfig.Filepath = t.TempDir()

	db, err := InitDB(ctx, cfg)
	require.NoError(t, err)
	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())

	require.NoError(t, RunMigrations(ctx))
	require.NoError(t, InitData(ctx))
	assert.True(t, GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(ctx).Healthy)
	assert.Error(t, RunMigrations(ctx))
}

func TestSetDB(t *testing.T) {
	db := testutil.NewTestDB(t)
	SetDB(db)
	t.Cleanup(func() { SetDB(nil) })
	assert.Same(t, db, GetDB())
}
