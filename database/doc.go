// Package database manages the Bun connection for MySQL, PostgreSQL and
// SQLite, applies versioned migrations with optional foreign keys, and seeds
// data from environment specific SQL files.
package database
