// Package repository provides generic Bun repositories and the member
// repository, whose searches build their WHERE clause from an optional
// condition and page with or without a count query.
package repository
