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
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
	globalDB      *bun.DB
)

// GetDB returns the process-wide Bun database, nil before InitDB or SetDB.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		if db := globalFactory.GetDB(); db != nil {
			return db
		}
	}
	return globalDB
}

// SetDB installs db as the process-wide database without a manager. Tests
// and embedding applications that own their connection use it.
func SetDB(db *bun.DB) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalDB = db
	if db != nil {
		db.RegisterModel(RegisteredModelInstances()...)
	}
}

func GetDatabaseManager() AbstractDatabaseManager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

func GetDatabaseFactory() *BaseDatabaseFactory {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalFactory
}

// InitDB connects the process-wide database described by cfg, migrating and
// seeding it when the config asks for it.
func InitDB(ctx context.Context, cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, cfg); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := manager.GetDB()
	db.RegisterModel(RegisteredModelInstances()...)

	globalMu.Lock()
	defer globalMu.Unlock()
	globalFactory = factory
	globalConfig = cfg
	globalDB = db
	return db, nil
}

// CloseDB closes the process-wide connection and forgets it.
func CloseDB() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	var err error
	if globalFactory != nil {
		err = globalFactory.Close()
	} else if globalDB != nil {
		err = globalDB.Close()
	}
	globalFactory = nil
	globalDB = nil
	return err
}

func GetHealthStatus(ctx context.Context) *HealthStatus {
	if f := GetDatabaseFactory(); f != nil {
		return f.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

func GetDatabaseStats() *DBStats {
	if f := GetDatabaseFactory(); f != nil {
		return f.GetStats()
	}
	return &DBStats{}
}

// RunMigrations migrates the process-wide database with the InitDB config.
func RunMigrations(ctx context.Context) error {
	manager, cfg, err := initialized()
	if err != nil {
		return err
	}
	return manager.RunMigrations(ctx, cfg)
}

// InitData seeds the process-wide database for the configured environment.
func InitData(ctx context.Context) error {
	_, cfg, err := initialized()
	if err != nil {
		return err
	}
	return InitDataWithSQL(ctx, cfg.DataInitConfig.Environment)
}

// InitDataWithSQL seeds the process-wide database with the SQL files of
// environment, overriding the configured one.
func InitDataWithSQL(ctx context.Context, environment string) error {
	manager, cfg, err := initialized()
	if err != nil {
		return err
	}
	initCfg := cfg.DataInitConfig
	if environment != "" {
		initCfg.Environment = environment
	}
	return NewSQLInitManager(manager.GetDB(), initCfg).ExecuteInitialization(ctx)
}

func initialized() (AbstractDatabaseManager, *Config, error) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil || globalFactory.GetManager() == nil {
		return nil, nil, fmt.Errorf("database not initialized")
	}
	if globalFactory.GetDB() == nil {
		return nil, nil, fmt.Errorf("database instance not initialized")
	}
	cfg := globalConfig
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return globalFactory.GetManager(), cfg, nil
}
