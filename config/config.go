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

// Package config loads the application configuration from a YAML file, after
// reading an optional .env file into the process environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/types"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr       = ":8080"
	defaultTimeout    = 10 * time.Second
	defaultMaxPage    = 100
	defaultEnvFile    = ".env"
	configPathEnvName = "MEMBERQUERY_CONFIG"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Database database.Config `yaml:"database"`
}

var _ database.ConfigProvider = (*Config)(nil)

// ConfigLoader returns the database section.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

// Default returns a configuration for an in-memory SQLite database.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.ConnectionConfig = *database.DefaultConnectionConfig()
	cfg.Database.ConnectionConfig.Type = "sqlite"
	cfg.Database.ConnectionConfig.DBName = ":memory:"
	cfg.Database.DataMigrateConfig.EnableMigrateOnStartup = true
	cfg.applyDefaults()
	return cfg
}

// Load reads the .env file next to the working directory, if any, then the
// YAML file at path. An empty path falls back to $MEMBERQUERY_CONFIG and then
// to Default.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(defaultEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}
	if path == "" {
		path = os.Getenv(configPathEnvName)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the database defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	cfg.Database.ConnectionConfig = *database.DefaultConnectionConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = defaultTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = defaultTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultTimeout
	}
	if c.Server.DefaultPageSize <= 0 {
		c.Server.DefaultPageSize = types.DefaultPageSize
	}
	if c.Server.MaxPageSize <= 0 {
		c.Server.MaxPageSize = defaultMaxPage
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
