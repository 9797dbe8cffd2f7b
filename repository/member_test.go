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
	"database/sql"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// countQueries counts executed count(*) queries.
type countQueries struct {
	n atomic.Int32
}

func (c *countQueries) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (c *countQueries) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if strings.Contains(strings.ToLower(event.Query), "count(*)") {
		c.n.Add(1)
	}
}

func (c *countQueries) reset() int {
	return int(c.n.Swap(0))
}

func newSQLiteDB(t *testing.T) (*bun.DB, *countQueries) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	counter := &countQueries{}
	db.AddQueryHook(counter)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateRegisteredTables(context.Background(), db))
	return db, counter
}

// seedMembers stores teamA with member1/member2 and teamB with
// member3/member4, aged 10 to 40.
func seedMembers(t *testing.T, repo MemberRepository) {
	t.Helper()
	ctx := context.Background()

	teamA := entity.NewTeam("teamA")
	teamB := entity.NewTeam("teamB")
	require.NoError(t, repo.SaveTeam(ctx, teamA, teamB))

	require.NoError(t, repo.Create(ctx,
		entity.NewMemberWithTeam("member1", 10, teamA),
		entity.NewMemberWithTeam("member2", 20, teamA),
		entity.NewMemberWithTeam("member3", 30, teamB),
		entity.NewMemberWithTeam("member4", 40, teamB),
	))
}

func usernames(rows []*dto.MemberTeam) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Username)
	}
	return names
}

func TestSearchCombinedCondition(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)

	condition := dto.MemberSearchCondition{
		AgeGoe:   dto.IntPtr(32),
		AgeLoe:   dto.IntPtr(41),
		TeamName: "teamB",
	}

	searches := map[string]func(context.Context, dto.MemberSearchCondition) ([]*dto.MemberTeam, error){
		"Search":          repo.Search,
		"SearchByBuilder": repo.SearchByBuilder,
	}
	for name, search := range searches {
		t.Run(name, func(t *testing.T) {
			rows, err := search(context.Background(), condition)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			row := rows[0]
			assert.Equal(t, "member4", row.Username)
			assert.Equal(t, 40, row.Age)
			require.NotNil(t, row.TeamName)
			assert.Equal(t, "teamB", *row.TeamName)
			require.NotNil(t, row.TeamID)
			assert.NotZero(t, row.MemberID)
		})
	}
}

func TestSearchConditions(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	require.NoError(t, repo.Create(context.Background(), entity.NewMember("freelancer", 35)))

	tests := []struct {
		name      string
		condition dto.MemberSearchCondition
		want      []string
	}{
		{
			name: "empty condition",
			want: []string{"member1", "member2", "member3", "member4", "freelancer"},
		},
		{
			name:      "blank strings are absent",
			condition: dto.MemberSearchCondition{Username: "  ", TeamName: ""},
			want:      []string{"member1", "member2", "member3", "member4", "freelancer"},
		},
		{
			name:      "username",
			condition: dto.MemberSearchCondition{Username: "member2"},
			want:      []string{"member2"},
		},
		{
			name:      "inclusive age bounds",
			condition: dto.MemberSearchCondition{AgeGoe: dto.IntPtr(20), AgeLoe: dto.IntPtr(35)},
			want:      []string{"member2", "member3", "freelancer"},
		},
		{
			name:      "team name excludes members without team",
			condition: dto.MemberSearchCondition{TeamName: "teamA"},
			want:      []string{"member1", "member2"},
		},
		{
			name:      "no match",
			condition: dto.MemberSearchCondition{TeamName: "teamC"},
			want:      []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.Search(context.Background(), tt.condition)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, usernames(rows))

			built, err := repo.SearchByBuilder(context.Background(), tt.condition)
			require.NoError(t, err)
			assert.ElementsMatch(t, usernames(rows), usernames(built))
		})
	}
}

func TestSearchMemberWithoutTeam(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	require.NoError(t, repo.Create(context.Background(), entity.NewMember("freelancer", 35)))

	rows, err := repo.Search(context.Background(), dto.MemberSearchCondition{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].TeamID)
	assert.Nil(t, rows[0].TeamName)
}

func TestSearchPageSimpleAlwaysCounts(t *testing.T) {
	db, counter := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	counter.reset()

	page, err := repo.SearchPageSimple(context.Background(), dto.MemberSearchCondition{},
		types.NewPageRequestWithOrders(1, 2, types.Order{Property: "id", Direction: types.Asc}))
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2"}, usernames(page.Items))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages())
	assert.Equal(t, 1, counter.reset())

	page, err = repo.SearchPageSimple(context.Background(), dto.MemberSearchCondition{},
		types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, counter.reset())
}

func TestSearchPageComplexCountSkipping(t *testing.T) {
	db, counter := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	byID := types.Order{Property: "id", Direction: types.Asc}

	tests := []struct {
		name       string
		page, size int
		wantNames  []string
		wantTotal  int
		wantCounts int
	}{
		{name: "short first page", page: 1, size: 10, wantNames: []string{"member1", "member2", "member3", "member4"}, wantTotal: 4},
		{name: "short last page", page: 2, size: 3, wantNames: []string{"member4"}, wantTotal: 4},
		{name: "full page", page: 1, size: 2, wantNames: []string{"member1", "member2"}, wantTotal: 4, wantCounts: 1},
		{name: "exact last page", page: 2, size: 2, wantNames: []string{"member3", "member4"}, wantTotal: 4, wantCounts: 1},
		{name: "past the end", page: 5, size: 2, wantNames: []string{}, wantTotal: 4, wantCounts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter.reset()
			page, err := repo.SearchPageComplex(context.Background(), dto.MemberSearchCondition{},
				types.NewPageRequestWithOrders(tt.page, tt.size, byID))
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, usernames(page.Items))
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantCounts, counter.reset())
		})
	}
}

func TestSearchPageStrategiesAgree(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	condition := dto.MemberSearchCondition{AgeGoe: dto.IntPtr(15)}

	for pageNo := 1; pageNo <= 3; pageNo++ {
		req := types.NewPageRequestWithOrders(pageNo, 2, types.Order{Property: "age", Direction: types.Desc})
		simple, err := repo.SearchPageSimple(context.Background(), condition, req)
		require.NoError(t, err)
		optimized, err := repo.SearchPageComplex(context.Background(), condition, req)
		require.NoError(t, err)

		assert.Equal(t, simple.Total, optimized.Total, "page %d", pageNo)
		assert.Equal(t, usernames(simple.Items), usernames(optimized.Items), "page %d", pageNo)
		assert.Equal(t, 3, simple.Total)
	}
}

func TestSearchPageOrdering(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)

	page, err := repo.SearchPageSimple(context.Background(), dto.MemberSearchCondition{},
		types.NewPageRequestWithOrders(1, 10,
			types.Order{Property: "teamName", Direction: types.Desc},
			types.Order{Property: "bogus; DROP TABLE member", Direction: types.Asc},
			types.Order{Property: "age", Direction: types.Asc},
		))
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member4", "member1", "member2"}, usernames(page.Items))
}

func TestFindTeamByName(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	ctx := context.Background()

	team, err := repo.FindTeamByName(ctx, "teamB")
	require.NoError(t, err)
	require.NotNil(t, team)
	assert.Equal(t, "teamB", team.Name)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "member3", team.Members[0].Username)
	assert.Equal(t, "member4", team.Members[1].Username)

	missing, err := repo.FindTeamByName(ctx, "teamC")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemberCrud(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	ctx := context.Background()

	found, err := repo.FindByUsername(ctx, "member3")
	require.NoError(t, err)
	require.Len(t, found, 1)
	member := found[0]
	require.NotNil(t, member.TeamID)

	one, err := repo.GetOne(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, 30, one.Age)

	member.Age = 31
	member.ChangeTeam(nil)
	require.NoError(t, repo.Update(ctx, member))

	rows, err := repo.Search(ctx, dto.MemberSearchCondition{Username: "member3"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 31, rows[0].Age)
	assert.Nil(t, rows[0].TeamName)

	require.NoError(t, repo.Delete(ctx, member.ID))
	gone, err := repo.GetOne(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemberPageWithFilter(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)

	page, err := repo.Page(context.Background(), types.NewPageRequest(1, 2,
		types.NewQueryFilter("?TableAlias.age > ?", 15),
		[]types.Order{{Property: "age", Direction: types.Desc}}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "member4", page.Items[0].Username)
	assert.Equal(t, "member3", page.Items[1].Username)
}

func TestMemberUpsert(t *testing.T) {
	db, _ := newSQLiteDB(t)
	repo := NewMemberRepository(db)
	seedMembers(t, repo)
	ctx := context.Background()

	found, err := repo.FindByUsername(ctx, "member1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	existing := found[0]
	existing.Age = 11

	newcomer := entity.NewMember("member5", 50)
	newcomer.ID = 100

	require.NoError(t, repo.Upsert(ctx, []string{"age"}, nil, existing, newcomer))

	got, err := repo.GetOne(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Age)

	got, err = repo.GetOne(ctx, int64(100))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "member5", got.Username)

	assert.Error(t, repo.Upsert(ctx, nil, nil, existing))
}
