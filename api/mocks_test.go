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


package api_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/types"
)

type MockMemberSearcher struct {
	mock.Mock
}

func (m *MockMemberSearcher) Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error) {
	args := m.Called(ctx, condition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.MemberTeam), args.Error(1)
}

func (m *MockMemberSearcher) SearchPage(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest, optimized bool) (*types.Pagination[dto.MemberTeam], error) {
	args := m.Called(ctx, condition, page, optimized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Pagination[dto.MemberTeam]), args.Error(1)
}

type MockTeamFinder struct {
	mock.Mock
}

func (m *MockTeamFinder) GetByName(ctx context.Context, name string) (*entity.Team, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Team), args.Error(1)
}
