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

import "github.com/uptrace/bun"

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// BooleanBuilder accumulates filters joined with AND. The zero value holds no
// filter and matches every row.
type BooleanBuilder struct {
	filters []*QueryFilter
}

// NewBooleanBuilder returns an empty builder.
func NewBooleanBuilder() *BooleanBuilder {
	return &BooleanBuilder{}
}

// And appends the filter. A nil filter is ignored.
func (b *BooleanBuilder) And(filter *QueryFilter) *BooleanBuilder {
	if filter != nil {
		b.filters = append(b.filters, filter)
	}
	return b
}

// IsEmpty reports whether no filter was added.
func (b *BooleanBuilder) IsEmpty() bool {
	return len(b.filters) == 0
}

// Filters returns a copy of the accumulated filters in insertion order.
func (b *BooleanBuilder) Filters() []*QueryFilter {
	result := make([]*QueryFilter, len(b.filters))
	copy(result, b.filters)
	return result
}

// Apply adds every accumulated filter to the query.
func (b *BooleanBuilder) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return Where(q, b.filters...)
}

// Where adds the non-nil filters to the query, each as its own AND condition.
func Where(q *bun.SelectQuery, filters ...*QueryFilter) *bun.SelectQuery {
	for _, f := range filters {
		if f == nil {
			continue
		}
		q = q.Where(f.Schema, f.Args...)
	}
	return q
}
