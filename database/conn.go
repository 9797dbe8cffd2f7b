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
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// Process-wide connection used by services constructed without an explicit
// *bun.DB.
var (
	mu         sync.RWMutex
	current    *Factory
	currentCfg *Config
)

var errNotInitialized = errors.New("database not initialized")

func active() (*Factory, *Config) {
	mu.RLock()
	defer mu.RUnlock()
	return current, currentCfg
}

// GetDB returns the process-wide database, or nil before InitDB.
func GetDB() *bun.DB {
	if f, _ := active(); f != nil {
		return f.DB()
	}
	return nil
}

// InitDB connects with cfg, migrates when EnableMigrateOnStartup is set and
// seeds when AutoInitOnStartup is set. On success the connection replaces the
// process-wide one.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, errNoConfig
	}

	f := NewDatabaseFactory()
	manager, err := f.CreateFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	ctx := context.Background()
	if err := f.InitializeDatabase(ctx, cfg.DataMigrateConfig.EnableMigrateOnStartup); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := manager.InitData(ctx); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to initialize data: %w", err)
		}
	}

	mu.Lock()
	current, currentCfg = f, cfg
	mu.Unlock()
	return f.DB(), nil
}

// CloseDB disconnects and forgets the process-wide database.
func CloseDB() error {
	mu.Lock()
	f := current
	current, currentCfg = nil, nil
	mu.Unlock()

	if f == nil {
		return nil
	}
	return f.Close()
}

// GetHealthStatus matches the api health callback signature.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if f, _ := active(); f != nil {
		return f.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

// InitDataWithSQL runs the seed files of environment against the
// process-wide database, honouring the configured seed root.
func InitDataWithSQL(ctx context.Context, environment string) error {
	f, cfg := active()
	if f == nil || f.DB() == nil {
		return errNotInitialized
	}

	seeder := NewSQLInitManager(f.DB(), environment)
	if cfg != nil && cfg.DataInitConfig.Filepath != "" {
		seeder.SetSQLRootPath(cfg.DataInitConfig.Filepath)
	}
	return seeder.ExecuteInitialization(ctx)
}
