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
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/tomoncle/memberquery/utils"
	"github.com/uptrace/bun"
)

var (
	supportedTypes = []string{"mysql", "postgres", "sqlite"}

	errNoConfig  = errors.New("database configuration cannot be empty")
	errNoManager = errors.New("database manager not created")
)

// Factory builds a single DatabaseManager from a Config and brings it up.
type Factory struct {
	manager Manager
	logger  Logger
}

func NewDatabaseFactory() *Factory {
	return &Factory{logger: GetLogger()}
}

// CreateFromConfig applies DB_* environment overrides to cfg and returns a
// manager for it. The type is validated after the overrides so DB_TYPE can
// fix a bad file value.
func (f *Factory) CreateFromConfig(cfg *Config) (Manager, error) {
	if cfg == nil {
		return nil, errNoConfig
	}
	applyEnv(&cfg.ConnectionConfig)

	if kind := cfg.ConnectionConfig.Type; !slices.Contains(supportedTypes, kind) {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", kind, supportedTypes)
	}

	f.manager = NewDatabaseManager(cfg)
	f.manager.SetLogger(f.logger)
	return f.manager, nil
}

// applyEnv overlays the DB_* variables on c. Durations take either Go syntax
// ("90s") or a plain number of seconds.
func applyEnv(c *ConnectionConfig) {
	c.Type = utils.EnvDefaultString("DB_TYPE", c.Type)
	c.Driver = utils.EnvDefaultString("DB_DRIVER", c.Driver)
	c.Host = utils.EnvDefaultString("DB_HOST", c.Host)
	c.Port = envInt("DB_PORT", c.Port)
	c.Username = utils.EnvDefaultString("DB_USERNAME", c.Username)
	c.Password = utils.EnvDefaultString("DB_PASSWORD", c.Password)
	c.DBName = utils.EnvDefaultString("DB_NAME", c.DBName)
	c.SSLMode = utils.EnvDefaultString("DB_SSLMODE", c.SSLMode)

	c.MaxIdleConns = envInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.ConnMaxLifetime = envSeconds("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)

	c.EnableReconnect = utils.EnvDefaultBool("DB_ENABLE_RECONNECT", c.EnableReconnect)
	c.ReconnectInterval = envSeconds("DB_RECONNECT_INTERVAL", c.ReconnectInterval)

	c.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", c.EnableQueryLog)
	c.QueryLogStyle = utils.EnvDefaultString("DB_QUERY_LOG_STYLE", c.QueryLogStyle)
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return time.Duration(n) * time.Second
	}
	return utils.EnvDefaultDuration(key, def)
}

// InitializeDatabase connects and, when asked, applies pending migrations.
func (f *Factory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return errNoManager
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database ready")
	return nil
}

// DB is nil until a manager has connected.
func (f *Factory) DB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

func (f *Factory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

func (f *Factory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{LastError: errNoManager.Error(), LastCheckTime: time.Now()}
	}
	return f.manager.HealthCheck(ctx)
}

func (f *Factory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
