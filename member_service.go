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

package memberquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/repository"
	"github.com/tomoncle/memberquery/types"
)

// MemberService exposes member access and the dynamic member searches.
type MemberService interface {
	// Join stores member, storing its team first when the team is new.
	Join(ctx context.Context, member *entity.Member) error

	// Get returns the member with id, or nil when absent.
	Get(ctx context.Context, id int64) (*entity.Member, error)

	// Members returns every member.
	Members(ctx context.Context) ([]*entity.Member, error)

	// MembersByUsername returns the members named username.
	MembersByUsername(ctx context.Context, username string) ([]*entity.Member, error)

	// Search returns every projection row matching condition.
	Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error)

	// SearchByBuilder is Search with the predicates accumulated in a
	// types.BooleanBuilder.
	SearchByBuilder(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error)

	// SearchPage returns one page of matching rows. When optimized is set the
	// count query is skipped whenever the page itself determines the total.
	SearchPage(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest, optimized bool) (*types.Pagination[dto.MemberTeam], error)
}

// TeamService creates and looks up teams.
type TeamService interface {
	Create(ctx context.Context, name string) (*entity.Team, error)

	// GetByName returns the team with its members ordered by id, or nil.
	GetByName(ctx context.Context, name string) (*entity.Team, error)
}

type memberService struct {
	repo func() repository.MemberRepository
}

// NewMemberService returns a MemberService over repo. A nil repo binds the
// process-wide database on first use.
func NewMemberService(repo repository.MemberRepository) MemberService {
	return &memberService{repo: lazily(repo, repository.NewMemberRepository)}
}

func (s *memberService) Join(ctx context.Context, member *entity.Member) error {
	if member == nil {
		return fmt.Errorf("member cannot be nil")
	}
	if member.Team != nil && member.Team.ID == 0 {
		if err := s.repo().SaveTeam(ctx, member.Team); err != nil {
			return err
		}
	}
	return s.repo().Create(ctx, member)
}

func (s *memberService) Get(ctx context.Context, id int64) (*entity.Member, error) {
	return s.repo().GetOne(ctx, id)
}

func (s *memberService) Members(ctx context.Context) ([]*entity.Member, error) {
	return s.repo().GetAll(ctx)
}

func (s *memberService) MembersByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return s.repo().FindByUsername(ctx, username)
}

func (s *memberService) Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error) {
	return s.repo().Search(ctx, condition)
}

func (s *memberService) SearchByBuilder(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error) {
	return s.repo().SearchByBuilder(ctx, condition)
}

func (s *memberService) SearchPage(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest, optimized bool) (*types.Pagination[dto.MemberTeam], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	if optimized {
		return s.repo().SearchPageComplex(ctx, condition, page)
	}
	return s.repo().SearchPageSimple(ctx, condition, page)
}

type teamService struct {
	repo func() repository.MemberRepository
}

// NewTeamService returns a TeamService over repo. Teams are stored through
// the member repository, which owns both tables.
func NewTeamService(repo repository.MemberRepository) TeamService {
	return &teamService{repo: lazily(repo, repository.NewMemberRepository)}
}

func (s *teamService) Create(ctx context.Context, name string) (*entity.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("team name cannot be empty")
	}
	team := entity.NewTeam(name)
	if err := s.repo().SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) GetByName(ctx context.Context, name string) (*entity.Team, error) {
	return s.repo().FindTeamByName(ctx, name)
}
