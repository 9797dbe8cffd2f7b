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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	UnsupportedErr
)

// postgresStates maps SQLSTATE codes shared by lib/pq and pgx.
var postgresStates = map[string]SQLError{
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
	"0A000": UnsupportedErr,
}

// mysqlNumbers maps MySQL server error numbers.
var mysqlNumbers = map[uint16]SQLError{
	1050: ExistTableErr,
	1054: NoColumnErr,
	1060: ExistColumnErr,
	1061: ExistIndexErr,
	1091: NoIndexErr,
	1146: NoTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
}

// sqliteMessages is checked in order against the lower-cased message; every
// fragment of an entry must be present. SQLite has no typed errors through
// database/sql.
var sqliteMessages = []struct {
	fragments []string
	kind      SQLError
}{
	{[]string{"no such column"}, NoColumnErr},
	{[]string{"no such index"}, NoIndexErr},
	{[]string{"no such table"}, NoTableErr},
	{[]string{"already exists", "index"}, ExistIndexErr},
	{[]string{"already exists", "table"}, ExistTableErr},
	{[]string{"duplicate column name"}, ExistColumnErr},
	{[]string{"unique constraint failed"}, DuplicateKeyErr},
	{[]string{"not null constraint failed"}, NotNullViolationErr},
	{[]string{"foreign key constraint failed"}, ForeignKeyViolationErr},
	{[]string{"check constraint failed"}, CheckConstraintViolationErr},
	{[]string{"syntax error", "constraint"}, UnsupportedErr},
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == NoRowsErr
}

// IsSqlError classifies err by driver error type first and falls back to
// message matching for SQLite. Typed driver errors with an unmapped code
// report (true, UnknownErr).
func IsSqlError(err error) (bool, SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}

	var (
		mysqlErr *mysql.MySQLError
		pgErr    *pgconn.PgError
		pqErr    *pq.Error
	)
	switch {
	case errors.As(err, &mysqlErr):
		return true, lookup(mysqlNumbers, mysqlErr.Number)
	case errors.As(err, &pgErr):
		return true, lookup(postgresStates, pgErr.Code)
	case errors.As(err, &pqErr):
		return true, lookup(postgresStates, string(pqErr.Code))
	}

	msg := strings.ToLower(err.Error())
	for _, m := range sqliteMessages {
		if containsAll(msg, m.fragments) {
			return true, m.kind
		}
	}
	return false, UnknownErr
}

func lookup[K comparable](codes map[K]SQLError, code K) SQLError {
	if kind, ok := codes[code]; ok {
		return kind
	}
	return UnknownErr
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}
