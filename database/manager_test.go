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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/anvil/internal/testutil"
	"github.com/tomoncle/anvil/types"
	"github.com/uptrace/bun"
)

type account struct {
	bun.BaseModel `bun:"table:accounts"`
	types.Entity

	Name string `bun:"name,notnull"`
}

func memoryConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = testutil.NewTestDSN(t.Name())
	cfg.HealthCheckInterval = 0
	return cfg
}

func TestSQLiteOpener(t *testing.T) {
	driver, dsn, _ := sqliteOpener(&ConnectionConfig{DBName: ":memory:"})
	assert.NotEmpty(t, driver)
	assert.Equal(t, "file::memory:?cache=shared", dsn)

	_, dsn, _ = sqliteOpener(&ConnectionConfig{DBName: "data/app"})
	assert.Equal(t, "data/app.db", dsn)

	_, dsn, _ = sqliteOpener(&ConnectionConfig{DBName: "file:x?mode=memory"})
	assert.Equal(t, "file:x?mode=memory", dsn)
}

func TestDSNBuilders(t *testing.T) {
	cfg := &ConnectionConfig{Username: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", ConnectTimeout: 10 * time.Second}
	driver, dsn, _ := postgresOpener(cfg)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable&connect_timeout=10", dsn)

	cfg.Port = 3306
	driver, dsn, _ = mysqlOpener(cfg)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True")
}

func TestManagerConnectAndHealth(t *testing.T) {
	ctx := context.Background()
	dm := NewDatabaseManager(memoryConfig(t))
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	require.NotNil(t, dm.GetDB())
	require.NotNil(t, dm.GetSQLDB())
	require.NoError(t, dm.Ping(ctx))

	status := dm.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 1, dm.GetStats().MaxOpenConns)
}

func TestManagerDisconnect(t *testing.T) {
	ctx := context.Background()
	dm := NewDatabaseManager(memoryConfig(t))
	require.NoError(t, dm.Connect(ctx))
	require.NoError(t, dm.Disconnect())

	assert.Nil(t, dm.GetDB())
	assert.Error(t, dm.Ping(ctx))
	assert.False(t, dm.HealthCheck(ctx).Healthy)
	assert.Equal(t, &DBStats{}, dm.GetStats())
	assert.NoError(t, dm.Disconnect())
}

func TestManagerReconnect(t *testing.T) {
	ctx := context.Background()
	dm := NewDatabaseManager(memoryConfig(t))
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	first := dm.GetDB()
	require.NoError(t, dm.Reconnect(ctx))
	assert.NotSame(t, first, dm.GetDB())
	assert.NoError(t, dm.Ping(ctx))
}

func TestManagerUnsupportedType(t *testing.T) {
	dm := NewDatabaseManager(&ConnectionConfig{Type: "oracle"})
	err := dm.Connect(context.Background())
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestManagerQueryLog(t *testing.T) {
	t.Setenv(QueryLogEnv, "2")
	ctx := context.Background()
	cfg := memoryConfig(t)
	dm := NewDatabaseManager(cfg)
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	var buf bytes.Buffer
	dm.GetDB().AddQueryHook(NewQueryHook(&buf, false))
	_, err := dm.GetDB().ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SELECT 1")
}
