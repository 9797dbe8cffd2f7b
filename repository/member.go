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
	"strings"

	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/types"

	"github.com/uptrace/bun"
)

// Sortable projection properties and the columns they resolve to.
var memberTeamOrderColumns = map[string]string{
	"id":       "m.id",
	"memberId": "m.id",
	"username": "m.username",
	"age":      "m.age",
	"teamId":   "t.id",
	"teamName": "t.name",
}

type memberRepositoryImpl struct {
	*crud[entity.Member]
	teams  *crud[entity.Team]
	logger database.Logger
}

// NewMemberRepository returns a MemberRepository backed by db.
func NewMemberRepository(db *bun.DB) MemberRepository {
	return &memberRepositoryImpl{
		crud:   &crud[entity.Member]{db: db},
		teams:  &crud[entity.Team]{db: db},
		logger: database.GetLogger(),
	}
}

func (r *memberRepositoryImpl) FindByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.List(ctx, types.NewQueryFilter("?TableAlias.username = ?", username))
}

func (r *memberRepositoryImpl) SaveTeam(ctx context.Context, team ...*entity.Team) error {
	return r.teams.Create(ctx, team...)
}

func (r *memberRepositoryImpl) FindTeamByName(ctx context.Context, name string) (*entity.Team, error) {
	team := new(entity.Team)
	err := r.db.NewSelect().
		Model(team).
		Relation("Members", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.id ASC")
		}).
		Where("?TableAlias.name = ?", name).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *memberRepositoryImpl) SearchByBuilder(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error) {
	builder := types.NewBooleanBuilder().
		And(usernameEq(condition.Username)).
		And(teamNameEq(condition.TeamName)).
		And(ageGoe(condition.AgeGoe)).
		And(ageLoe(condition.AgeLoe))

	rows := make([]*dto.MemberTeam, 0)
	err := builder.Apply(r.memberTeamQuery()).Scan(ctx, &rows)
	return rows, err
}

func (r *memberRepositoryImpl) Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error) {
	rows := make([]*dto.MemberTeam, 0)
	err := r.searchQuery(condition).Scan(ctx, &rows)
	return rows, err
}

func (r *memberRepositoryImpl) SearchPageSimple(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest) (*types.Pagination[dto.MemberTeam], error) {
	rows, err := r.searchContent(ctx, condition, page)
	if err != nil {
		return nil, err
	}
	total, err := r.searchQuery(condition).Count(ctx)
	if err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[dto.MemberTeam](page.GetPage(), page.GetPageSize())
	pagination.Items = rows
	pagination.Total = total
	return pagination, nil
}

func (r *memberRepositoryImpl) SearchPageComplex(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest) (*types.Pagination[dto.MemberTeam], error) {
	rows, err := r.searchContent(ctx, condition, page)
	if err != nil {
		return nil, err
	}
	counted := false
	pagination, err := types.PageOf(rows, page, func() (int, error) {
		counted = true
		return r.searchQuery(condition).Count(ctx)
	})
	if err != nil {
		return nil, err
	}
	if !counted {
		r.logger.Debug("Count query skipped", "page", page.GetPage(), "size", page.GetPageSize(), "total", pagination.Total)
	}
	return pagination, nil
}

func (r *memberRepositoryImpl) searchContent(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest) ([]*dto.MemberTeam, error) {
	query := r.applyOrders(r.searchQuery(condition), page.GetOrders()).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize())

	rows := make([]*dto.MemberTeam, 0)
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// searchQuery is shared by content and count queries so both always carry the
// same predicates.
func (r *memberRepositoryImpl) searchQuery(condition dto.MemberSearchCondition) *bun.SelectQuery {
	return types.Where(r.memberTeamQuery(),
		usernameEq(condition.Username),
		teamNameEq(condition.TeamName),
		ageGoe(condition.AgeGoe),
		ageLoe(condition.AgeLoe),
	)
}

func (r *memberRepositoryImpl) memberTeamQuery() *bun.SelectQuery {
	return r.db.NewSelect().
		ColumnExpr("m.id AS member_id").
		ColumnExpr("m.username").
		ColumnExpr("m.age").
		ColumnExpr("t.id AS team_id").
		ColumnExpr("t.name AS team_name").
		TableExpr("member AS m").
		Join("LEFT JOIN team AS t ON t.id = m.team_id")
}

func (r *memberRepositoryImpl) applyOrders(q *bun.SelectQuery, orders []types.Order) *bun.SelectQuery {
	for _, order := range orders {
		column, ok := memberTeamOrderColumns[order.Property]
		if !ok {
			r.logger.Warn("Ignoring unknown sort property", "property", order.Property)
			continue
		}
		q = q.OrderExpr(column + " " + order.Direction.Name())
	}
	return q
}

func usernameEq(username string) *types.QueryFilter {
	if !hasText(username) {
		return nil
	}
	return types.NewQueryFilter("m.username = ?", username)
}

func teamNameEq(teamName string) *types.QueryFilter {
	if !hasText(teamName) {
		return nil
	}
	return types.NewQueryFilter("t.name = ?", teamName)
}

func ageGoe(age *int) *types.QueryFilter {
	if age == nil {
		return nil
	}
	return types.NewQueryFilter("m.age >= ?", *age)
}

func ageLoe(age *int) *types.QueryFilter {
	if age == nil {
		return nil
	}
	return types.NewQueryFilter("m.age <= ?", *age)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
