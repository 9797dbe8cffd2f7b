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
	"sync"

	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/repository"
	"github.com/tomoncle/memberquery/types"

	"github.com/uptrace/bun"
)

// Service is plain CRUD over one entity type, for entities that need no
// behaviour of their own. Lookups by id return nil, not an error, when
// nothing matches.
type Service[T any] interface {
	Get(ctx context.Context, id any) (*T, error)
	All(ctx context.Context) ([]*T, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	Save(ctx context.Context, model ...*T) error
	// SaveWithTx joins a transaction owned by the caller.
	SaveWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error
	Update(ctx context.Context, model *T) error
	Delete(ctx context.Context, id any) error

	// SelectBuilder starts a query on the entity's table for anything the
	// methods above do not cover.
	SelectBuilder() *bun.SelectQuery
}

// lazily defers building a repository until first use, so services can be
// wired before database.InitDB has run. A non-nil given value wins.
func lazily[R comparable](given R, build func(*bun.DB) R) func() R {
	var zero R
	if given != zero {
		return func() R { return given }
	}
	return sync.OnceValue(func() R { return build(database.GetDB()) })
}

type service[T any] struct {
	repo func() repository.Repository[T]
}

// NewService returns a Service over the process-wide database.
func NewService[T any]() Service[T] {
	return NewServiceWithRepository[T](nil)
}

func NewServiceWithRepository[T any](repo repository.Repository[T]) Service[T] {
	return &service[T]{repo: lazily(repo, repository.NewRepository[T])}
}

func (s *service[T]) Get(ctx context.Context, id any) (*T, error) { return s.repo().GetOne(ctx, id) }

func (s *service[T]) All(ctx context.Context) ([]*T, error) { return s.repo().GetAll(ctx) }

func (s *service[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.repo().List(ctx, filter)
}

func (s *service[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.repo().Page(ctx, page)
}

func (s *service[T]) Save(ctx context.Context, model ...*T) error {
	return s.repo().Create(ctx, model...)
}

func (s *service[T]) SaveWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error {
	return s.repo().CreateWithTx(ctx, tx, model...)
}

func (s *service[T]) Update(ctx context.Context, model *T) error { return s.repo().Update(ctx, model) }

func (s *service[T]) Delete(ctx context.Context, id any) error { return s.repo().Delete(ctx, id) }

func (s *service[T]) SelectBuilder() *bun.SelectQuery { return s.repo().NewSelect() }
