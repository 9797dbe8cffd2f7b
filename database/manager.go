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
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

const (
	driverPq           = "pq"
	driverPgx          = "pgx"
	queryLogStyleColor = "color"

	defaultConnectTimeout = 30 * time.Second
	healthPingTimeout     = 5 * time.Second
)

var errNotConnected = errors.New("database not connected")

type manager struct {
	cfg    *Config
	logger Logger

	mu        sync.RWMutex
	db        *bun.DB
	connected bool
	stop      chan struct{}
}

// NewDatabaseManager returns a Bun backed Manager. A nil cfg means the
// default pool settings with no database type, so Connect will fail until one
// is set.
func NewDatabaseManager(cfg *Config) Manager {
	if cfg == nil {
		cfg = &Config{ConnectionConfig: *DefaultConnectionConfig()}
	}
	return &manager{cfg: cfg, logger: GetLogger()}
}

func (m *manager) settings() *ConnectionConfig {
	return &m.cfg.ConnectionConfig
}

func (m *manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	db, err := m.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	c := m.settings()
	pingCtx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.db = db
	m.connected = true
	if c.HealthCheckInterval > 0 {
		m.watch(c.HealthCheckInterval)
	}

	m.logger.Info("Database connected", "type", c.Type, "host", c.Host, "dbname", c.DBName)
	return nil
}

// open builds the *bun.DB for the configured type, applies the pool
// settings, installs the query hooks and registers the models.
func (m *manager) open() (*bun.DB, error) {
	c := m.settings()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}

	driverName, dsn, dialect, err := dataSource(c)
	if err != nil {
		return nil, err
	}
	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// Each connection to an in-memory SQLite database sees its own data.
	if driverName == sqliteshim.ShimName && inMemory(dsn) {
		c.MaxOpenConns, c.MaxIdleConns = 1, 1
		c.ConnMaxLifetime, c.ConnMaxIdleTime = 0, 0
	}
	sqldb.SetMaxIdleConns(c.MaxIdleConns)
	sqldb.SetMaxOpenConns(c.MaxOpenConns)
	sqldb.SetConnMaxLifetime(c.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(c.ConnMaxIdleTime)

	db := bun.NewDB(sqldb, dialect)
	if c.EnableQueryLog {
		db.AddQueryHook(newQueryLogHook(c.QueryLogStyle))
	}
	if c.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{slowTime: c.SlowQueryTime, logger: m.logger})
	}
	db.RegisterModel(RegisteredModelInstances()...)
	return db, nil
}

// dataSource resolves the database/sql driver name, DSN and Bun dialect.
func dataSource(c *ConnectionConfig) (string, string, schema.Dialect, error) {
	switch strings.ToLower(c.Type) {
	case "postgres", "postgresql":
		driverName, err := postgresDriver(c.Driver)
		if err != nil {
			return "", "", nil, err
		}
		return driverName, postgresDSN(c), pgdialect.New(), nil
	case "mysql":
		return "mysql", mysqlDSN(c), mysqldialect.New(), nil
	case "sqlite", "sqlite3":
		return sqliteshim.ShimName, sqliteDSN(c.DBName), sqlitedialect.New(), nil
	default:
		return "", "", nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

func postgresDriver(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", driverPq:
		return "postgres", nil
	case driverPgx:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported postgres driver: %s", name)
	}
}

func postgresDSN(c *ConnectionConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	params := url.Values{}
	params.Set("sslmode", sslMode)
	params.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: params.Encode(),
	}
	return u.String()
}

func mysqlDSN(c *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = c.ConnectTimeout
	mc.ReadTimeout = c.ReadTimeout
	mc.WriteTimeout = c.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// sqliteDSN maps a configured database name to a sqlite DSN. Names that are
// already DSNs (":memory:", "file:...") are used as is.
func sqliteDSN(name string) string {
	switch {
	case name == "":
		return "file::memory:?cache=shared"
	case name == ":memory:", strings.HasPrefix(name, "file:"), strings.HasSuffix(name, ".db"):
		return name
	default:
		return name + ".db"
	}
}

func inMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// newQueryLogHook picks the query printer. Both honor the BUNDEBUG variable.
func newQueryLogHook(style string) bun.QueryHook {
	if strings.EqualFold(style, queryLogStyleColor) {
		return NewQueryHook(nil, "BUNDEBUG", true)
	}
	return bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	)
}

// Disconnect stops the health watcher and closes the connection.
func (m *manager) Disconnect() error {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.mu.Unlock()
	return m.close()
}

func (m *manager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.connected = false

	if err != nil {
		m.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}

// Reconnect replaces the connection. A running health watcher is kept.
func (m *manager) Reconnect(ctx context.Context) error {
	m.logger.Info("Reconnecting to the database")
	if err := m.close(); err != nil {
		m.logger.Warn("Error closing previous connection", "error", err)
	}
	return m.Connect(ctx)
}

func (m *manager) Ping(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return errNotConnected
	}
	return db.PingContext(ctx)
}

func (m *manager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *manager) GetSQLDB() *sql.DB {
	if db := m.GetDB(); db != nil {
		return db.DB
	}
	return nil
}

func (m *manager) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()

	m.mu.RLock()
	db, connected := m.db, m.connected
	m.mu.RUnlock()

	status := &HealthStatus{LastCheckTime: start, Connected: connected}
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pool := db.DB.Stats()
	status.ActiveConns = pool.InUse
	status.IdleConns = pool.Idle
	status.MaxOpenConns = pool.MaxOpenConnections

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
		return status
	}
	status.Healthy, status.Connected = true, true
	return status
}

// watch starts the periodic health check. The caller holds m.mu.
func (m *manager) watch(interval time.Duration) {
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	go m.watchLoop(m.stop, interval)
}

// watchLoop pings every interval and, when reconnect is enabled, tries to
// reconnect up to MaxReconnectTries times in a row after failed checks.
func (m *manager) watchLoop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c := m.settings()
	tries := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*healthPingTimeout)
		healthy := m.HealthCheck(ctx).Healthy
		cancel()
		if healthy {
			tries = 0
			continue
		}
		if !c.EnableReconnect || tries > c.MaxReconnectTries {
			continue
		}
		if tries == c.MaxReconnectTries {
			m.logger.Error("Max reconnect attempts reached, giving up", "tries", tries)
			tries++
			continue
		}

		tries++
		m.logger.Info("Starting database reconnect", "try", tries)
		select {
		case <-stop:
			return
		case <-time.After(c.ReconnectInterval):
		}

		ctx, cancel = context.WithTimeout(context.Background(), c.ConnectTimeout)
		err := m.Reconnect(ctx)
		cancel()
		if err != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", tries)
			continue
		}
		tries = 0
		m.logger.Info("Reconnect succeeded")
	}
}

func (m *manager) GetStats() *DBStats {
	sqldb := m.GetSQLDB()
	if sqldb == nil {
		return &DBStats{}
	}
	s := sqldb.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (m *manager) migrator() (*MigrationManager, error) {
	db := m.GetDB()
	if db == nil {
		return nil, errNotInitialized
	}
	return NewMigrationManager(db, m.logger, m.cfg), nil
}

func (m *manager) RunMigrations(ctx context.Context) error {
	mm, err := m.migrator()
	if err != nil {
		return err
	}
	return mm.RunMigrations(ctx)
}

func (m *manager) InitData(ctx context.Context) error {
	mm, err := m.migrator()
	if err != nil {
		return err
	}
	return mm.InitData(ctx)
}

func (m *manager) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}
