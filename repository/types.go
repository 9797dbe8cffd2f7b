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

	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/types"

	"github.com/uptrace/bun"
)

// Repository is generic CRUD over one Bun model. Lookups that match nothing
// return a nil entity and a nil error.
type Repository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	Create(ctx context.Context, models ...*T) error
	CreateWithTx(ctx context.Context, tx *bun.Tx, models ...*T) error
	Upsert(ctx context.Context, columns []string, conflictKeys []string, models ...*T) error
	Update(ctx context.Context, model *T) error
	Delete(ctx context.Context, id any) error

	NewSelect() *bun.SelectQuery
}

// MemberSearchRepository runs member/team projections filtered by a
// dto.MemberSearchCondition. Unset condition fields add no predicate.
type MemberSearchRepository interface {
	// SearchByBuilder accumulates the predicates in a types.BooleanBuilder.
	SearchByBuilder(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error)

	// Search passes the predicates to types.Where, which drops the nil ones.
	Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error)

	// SearchPageSimple always issues a content query and a count query.
	SearchPageSimple(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest) (*types.Pagination[dto.MemberTeam], error)

	// SearchPageComplex issues the count query only when the total cannot be
	// derived from the returned page.
	SearchPageComplex(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest) (*types.Pagination[dto.MemberTeam], error)
}

// MemberRepository is the member store plus team helpers and searches.
type MemberRepository interface {
	Repository[entity.Member]
	MemberSearchRepository

	FindByUsername(ctx context.Context, username string) ([]*entity.Member, error)

	SaveTeam(ctx context.Context, team ...*entity.Team) error

	// FindTeamByName loads the team with its members ordered by id, or
	// returns (nil, nil).
	FindTeamByName(ctx context.Context, name string) (*entity.Team, error)
}
