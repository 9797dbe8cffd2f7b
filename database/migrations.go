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
	"os"
	"time"

	"github.com/uptrace/bun"
)

const defaultEnvironment = "dev"

// Migration is the row recorded for every applied step.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations,alias:sm"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
}

// step is one versioned change. Steps whose enabled func reports false are
// neither run nor recorded, so turning an option on later applies them then.
type step struct {
	version     string
	name        string
	description string
	enabled     func(*Config) bool
	up          func(mm *MigrationManager, ctx context.Context, db bun.IDB) error
}

// steps are kept in version order.
var steps = []step{
	{
		version:     "001",
		name:        "create_base_tables",
		description: "Create the team and member tables",
		up: func(_ *MigrationManager, ctx context.Context, db bun.IDB) error {
			return CreateRegisteredTables(ctx, db)
		},
	},
	{
		version:     "002",
		name:        "add_foreign_keys",
		description: "Reference team from member",
		enabled:     func(c *Config) bool { return c.DataMigrateConfig.EnableForeignKey },
		up:          (*MigrationManager).addForeignKeys,
	},
	{
		version:     "003",
		name:        "seed_initial_data",
		description: "Load the SQL seed files of the environment",
		enabled:     func(c *Config) bool { return c.DataInitConfig.AutoInitOnMigration },
		up:          (*MigrationManager).seedInitialData,
	},
}

// MigrationManager applies steps and seed data to one database.
type MigrationManager struct {
	db          *bun.DB
	logger      Logger
	config      *Config
	environment string
}

// NewMigrationManager returns a manager for db. With a nil config only the
// base tables are created.
func NewMigrationManager(db *bun.DB, logger Logger, config *Config) *MigrationManager {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = GetLogger()
	}
	env := config.DataInitConfig.Environment
	if env == "" {
		env = defaultEnvironment
	}
	return &MigrationManager{db: db, logger: logger, config: config, environment: env}
}

// RunMigrations applies every enabled step that has no record yet, each in
// its own transaction. Query logging is muted unless BUNDEBUG_MIGRATION is
// set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return errNotInitialized
	}
	if _, verbose := os.LookupEnv("BUNDEBUG_MIGRATION"); !verbose {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	done, err := mm.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, s := range steps {
		if done[s.version] || (s.enabled != nil && !s.enabled(mm.config)) {
			continue
		}
		if err := mm.apply(ctx, s); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", s.version, err)
		}
		mm.logger.Info("Migration applied", "version", s.version, "name", s.name)
	}
	return nil
}

func (mm *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []string
	if err := mm.db.NewSelect().Model((*Migration)(nil)).Column("version").Scan(ctx, &versions); err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}

func (mm *MigrationManager) apply(ctx context.Context, s step) error {
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.up(mm, ctx, tx); err != nil {
			return err
		}
		record := &Migration{
			Version:     s.version,
			Name:        s.name,
			Description: s.description,
			AppliedAt:   time.Now(),
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

// CreateRegisteredTables creates, in registration priority order, the table
// of every registered model that does not exist yet.
func CreateRegisteredTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if is, kind := IsSqlError(err); is && kind == ExistTableErr {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	keys := NewForeignKeyManagerFromFile(mm.logger, mm.config.DataMigrateConfig.ForeignKeyFile)
	if errs := keys.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			mm.logger.Debug("Invalid foreign key constraint", "error", err.Error())
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return keys.AddAllForeignKeys(ctx, db)
}

// InitData runs the seed files outside of the migration sequence. Seeds are
// written to be idempotent, so running it twice is safe.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return errNotInitialized
	}
	return mm.seedInitialData(ctx, mm.db)
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	seeder := NewSQLInitManager(db, mm.environment)
	seeder.SetLogger(mm.logger)
	if root := mm.config.DataInitConfig.Filepath; root != "" {
		seeder.SetSQLRootPath(root)
	}

	mm.logger.Info("Seeding data", "environment", mm.environment)
	if err := seeder.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the recorded steps ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var applied []Migration
	err := mm.db.NewSelect().Model(&applied).Order("version ASC").Scan(ctx)
	return applied, err
}
