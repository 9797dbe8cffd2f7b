// Package dto holds search conditions and read-side projections that are not
// persisted.
package dto
