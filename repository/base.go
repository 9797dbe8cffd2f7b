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
	"fmt"
	"strings"

	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type crud[T any] struct {
	db *bun.DB
}

// NewRepository returns the generic Bun repository for T.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &crud[T]{db: db}
}

func (r *crud[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

// GetOne returns (nil, nil) when no row has the given id.
func (r *crud[T]) GetOne(ctx context.Context, id any) (*T, error) {
	model := new(T)
	err := r.db.NewSelect().Model(model).Where("?TableAlias.id = ?", id).Scan(ctx)
	switch {
	case database.IsNoRows(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return model, nil
}

func (r *crud[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *crud[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	models := make([]*T, 0)
	if err := types.Where(r.db.NewSelect().Model(&models), filter).Scan(ctx); err != nil {
		return nil, err
	}
	return models, nil
}

// Page counts first and skips the content query when nothing matches. Order
// properties are quoted and used as column names.
func (r *crud[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	models := make([]*T, 0)
	q := types.Where(r.db.NewSelect().Model(&models), page.GetFilter())
	result := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())

	total, err := q.Count(ctx)
	if err != nil || total == 0 {
		return result, err
	}
	for _, o := range page.GetOrders() {
		q = q.OrderExpr("? "+o.Direction.Name(), bun.Ident(o.Property))
	}
	if err := q.Offset(page.GetOffset()).Limit(page.GetPageSize()).Scan(ctx); err != nil {
		return nil, err
	}
	result.Items, result.Total = models, total
	return result, nil
}

func (r *crud[T]) Create(ctx context.Context, models ...*T) error {
	return insert(ctx, r.db, models)
}

func (r *crud[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, models ...*T) error {
	return insert(ctx, tx, models)
}

func insert[T any](ctx context.Context, db bun.IDB, models []*T) error {
	if len(models) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&models).Exec(ctx)
	return err
}

func (r *crud[T]) Update(ctx context.Context, model *T) error {
	_, err := r.db.NewUpdate().Model(model).WherePK().Exec(ctx)
	return err
}

func (r *crud[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("?TableAlias.id = ?", id).Exec(ctx)
	return err
}

// Upsert inserts models, overwriting columns on a key clash. conflictKeys
// defaults to the primary key; MySQL ignores it and uses every unique key.
// Dialects with neither ON CONFLICT nor ON DUPLICATE KEY fall back to insert,
// then update by primary key.
func (r *crud[T]) Upsert(ctx context.Context, columns []string, conflictKeys []string, models ...*T) error {
	if len(columns) == 0 {
		return fmt.Errorf("upsert needs at least one column to update")
	}
	if len(models) == 0 {
		return nil
	}

	assign := func(format string) string {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = fmt.Sprintf(format, c, c)
		}
		return strings.Join(parts, ", ")
	}

	q := r.db.NewInsert().Model(&models)
	switch {
	case r.db.HasFeature(feature.InsertOnConflict):
		if len(conflictKeys) == 0 {
			conflictKeys = []string{"id"}
		}
		q = q.On("CONFLICT (" + strings.Join(conflictKeys, ", ") + ") DO UPDATE").
			Set(assign("%s = EXCLUDED.%s"))
	case r.db.HasFeature(feature.InsertOnDuplicateKey):
		q = q.On("DUPLICATE KEY UPDATE " + assign("%s = VALUES(%s)"))
	default:
		return r.insertOrUpdate(ctx, models)
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *crud[T]) insertOrUpdate(ctx context.Context, models []*T) error {
	for _, m := range models {
		if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
			if _, uerr := r.db.NewUpdate().Model(m).WherePK().Exec(ctx); uerr != nil {
				return fmt.Errorf("upsert failed: insert: %v, update: %v", err, uerr)
			}
		}
	}
	return nil
}
