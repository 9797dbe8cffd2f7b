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
	"fmt"
	"strings"
)

const DefaultPageSize = 10

// Order is a single sort key. Property is a logical name resolved by the
// repository, never raw SQL.
type Order struct {
	Property  string
	Direction Direction
}

// ParseOrder parses "property" or "property,dir" (e.g. "age,desc").
func ParseOrder(s string) (Order, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	prop := strings.TrimSpace(parts[0])
	if prop == "" {
		return Order{}, false
	}
	order := Order{Property: prop, Direction: Asc}
	if len(parts) == 2 {
		order.Direction = ParseDirection(parts[1])
	}
	return order, true
}

func (o Order) String() string {
	return fmt.Sprintf("%s %s", o.Property, o.Direction)
}

// PageRequest describes pagination, optional filter, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []Order
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []Order {
	return p.orders
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []Order) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, make([]Order, 0))
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders ...Order) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]Order, 0))
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

func (p *Pagination[T]) TotalPages() int {
	if p.PageSize < 1 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p *Pagination[T]) HasNext() bool {
	return p.Page < p.TotalPages()
}

func (p *Pagination[T]) IsFirst() bool {
	return p.Page <= 1
}

func (p *Pagination[T]) IsLast() bool {
	return !p.HasNext()
}

// CountFunc returns the total number of rows matching a query.
type CountFunc func() (int, error)

// PageOf assembles a page from already fetched items and calls count only when
// the total cannot be derived from the page window: a short first page holds
// every row, and a non-empty short page is the last one.
func PageOf[T any](items []*T, req *PageRequest, count CountFunc) (*Pagination[T], error) {
	pagination := NewDefaultPagination[T](req.GetPage(), req.GetPageSize())
	if items != nil {
		pagination.Items = items
	}
	offset, size := req.GetOffset(), req.GetPageSize()
	switch {
	case offset == 0 && len(items) < size:
		pagination.Total = len(items)
	case len(items) != 0 && len(items) < size:
		pagination.Total = offset + len(items)
	default:
		total, err := count()
		if err != nil {
			return nil, err
		}
		pagination.Total = total
	}
	return pagination, nil
}
