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


package types

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBooleanBuilderIgnoresNil(t *testing.T) {
	b := NewBooleanBuilder()
	assert.True(t, b.IsEmpty())

	b.And(nil).And(NewQueryFilter("m.age >= ?", 10)).And(nil)
	assert.False(t, b.IsEmpty())
	require.Len(t, b.Filters(), 1)
	assert.Equal(t, "m.age >= ?", b.Filters()[0].Schema)
	assert.Equal(t, []interface{}{10}, b.Filters()[0].Args)
}

func TestBooleanBuilderFiltersIsCopy(t *testing.T) {
	b := NewBooleanBuilder().And(NewQueryFilter("m.age >= ?", 10))
	filters := b.Filters()
	filters[0] = nil
	assert.NotNil(t, b.Filters()[0])
}

func TestBooleanBuilderApply(t *testing.T) {
	db := newTestDB(t)

	b := NewBooleanBuilder().
		And(NewQueryFilter("m.username = ?", "member1")).
		And(nil).
		And(NewQueryFilter("m.age <= ?", 40))
	query := b.Apply(db.NewSelect().TableExpr("member AS m").ColumnExpr("m.id")).String()

	assert.Contains(t, query, "m.username = 'member1'")
	assert.Contains(t, query, "m.age <= 40")
	assert.Contains(t, query, " AND ")
}

func TestEmptyBuilderAddsNoWhere(t *testing.T) {
	db := newTestDB(t)

	query := NewBooleanBuilder().Apply(db.NewSelect().TableExpr("member AS m").ColumnExpr("m.id")).String()
	assert.NotContains(t, query, "WHERE")
}

func TestWhereSkipsNilFilters(t *testing.T) {
	db := newTestDB(t)

	query := Where(db.NewSelect().TableExpr("member AS m").ColumnExpr("m.id"),
		nil,
		NewQueryFilter("m.age >= ?", 32),
		nil,
	).String()
	assert.Contains(t, query, "WHERE")
	assert.Contains(t, query, "m.age >= 32")
	assert.NotContains(t, query, " AND ")

	query = Where(db.NewSelect().TableExpr("member AS m").ColumnExpr("m.id"), nil, nil).String()
	assert.NotContains(t, query, "WHERE")
}
