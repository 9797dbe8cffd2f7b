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


package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const (
	contentQuery = `SELECT m.id AS member_id, m.username, m.age, t.id AS team_id, t.name AS team_name FROM member AS m LEFT JOIN team AS t ON t.id = m.team_id`
	countQuery   = `SELECT count\(\*\) FROM member AS m LEFT JOIN team AS t ON t.id = m.team_id`
)

var memberTeamColumns = []string{"member_id", "username", "age", "team_id", "team_name"}

func newMockRepository(t *testing.T) (MemberRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewMemberRepository(db), mock
}

func TestSearchPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(contentQuery).WillReturnError(boom)

	rows, err := repo.Search(context.Background(), dto.MemberSearchCondition{TeamName: "teamB"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPageSimplePropagatesCountError(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("count failed")

	mock.ExpectQuery(contentQuery).
		WillReturnRows(sqlmock.NewRows(memberTeamColumns).
			AddRow(int64(1), "member1", int64(10), int64(1), "teamA"))
	mock.ExpectQuery(countQuery).WillReturnError(boom)

	page, err := repo.SearchPageSimple(context.Background(), dto.MemberSearchCondition{}, types.NewDefaultPageRequest(1, 10))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPageComplexPropagatesCountError(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("count failed")

	mock.ExpectQuery(contentQuery).
		WillReturnRows(sqlmock.NewRows(memberTeamColumns).
			AddRow(int64(1), "member1", int64(10), int64(1), "teamA").
			AddRow(int64(2), "member2", int64(20), int64(1), "teamA"))
	mock.ExpectQuery(countQuery).WillReturnError(boom)

	page, err := repo.SearchPageComplex(context.Background(), dto.MemberSearchCondition{}, types.NewDefaultPageRequest(1, 2))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPageComplexSkipsCountOnShortPage(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(contentQuery).
		WillReturnRows(sqlmock.NewRows(memberTeamColumns).
			AddRow(int64(4), "member4", int64(40), int64(2), "teamB"))

	page, err := repo.SearchPageComplex(context.Background(), dto.MemberSearchCondition{TeamName: "teamB"}, types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "member4", page.Items[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchContentErrorSkipsCount(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("syntax error")

	mock.ExpectQuery(contentQuery).WillReturnError(boom)

	page, err := repo.SearchPageSimple(context.Background(), dto.MemberSearchCondition{}, types.NewDefaultPageRequest(1, 10))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}
