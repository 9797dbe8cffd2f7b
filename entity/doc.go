// Package entity holds the Bun models persisted by this module: teams and the
// members that belong to them.
package entity
