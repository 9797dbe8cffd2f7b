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

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/types"
)

// memberSearchRequest is bound from the query string:
// ?username=&teamName=&ageGoe=&ageLoe=&page=&size=&sort=prop,dir
type memberSearchRequest struct {
	Username string   `validate:"max=255"`
	TeamName string   `validate:"max=255"`
	AgeGoe   *int     `validate:"omitempty,gte=0"`
	AgeLoe   *int     `validate:"omitempty,gte=0"`
	Page     int      `validate:"gte=1"`
	Size     int      `validate:"gte=1"`
	Sort     []string `validate:"dive,sortorder"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sortorder", func(fl validator.FieldLevel) bool {
		_, ok := types.ParseOrder(fl.Field().String())
		return ok
	})
	return v
}

// bindMemberSearch parses and validates the query. Malformed numbers and
// failed rules are both reported as errors.
func (h *Handler) bindMemberSearch(q url.Values) (*memberSearchRequest, error) {
	req := &memberSearchRequest{
		Username: q.Get("username"),
		TeamName: q.Get("teamName"),
		Page:     1,
		Size:     h.opts.DefaultPageSize,
		Sort:     q["sort"],
	}

	var err error
	if req.AgeGoe, err = optionalInt(q, "ageGoe"); err != nil {
		return nil, err
	}
	if req.AgeLoe, err = optionalInt(q, "ageLoe"); err != nil {
		return nil, err
	}
	if p, err := optionalInt(q, "page"); err != nil {
		return nil, err
	} else if p != nil {
		req.Page = *p
	}
	if s, err := optionalInt(q, "size"); err != nil {
		return nil, err
	} else if s != nil {
		req.Size = *s
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	if err := h.validate.Var(req.Size, fmt.Sprintf("lte=%d", h.opts.MaxPageSize)); err != nil {
		return nil, fmt.Errorf("size must not exceed %d", h.opts.MaxPageSize)
	}
	return req, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

func (r *memberSearchRequest) condition() dto.MemberSearchCondition {
	return dto.MemberSearchCondition{
		Username: r.Username,
		TeamName: r.TeamName,
		AgeGoe:   r.AgeGoe,
		AgeLoe:   r.AgeLoe,
	}
}

func (r *memberSearchRequest) pageRequest() *types.PageRequest {
	orders := make([]types.Order, 0, len(r.Sort))
	for _, s := range r.Sort {
		if o, ok := types.ParseOrder(s); ok {
			orders = append(orders, o)
		}
	}
	return types.NewPageRequestWithOrders(r.Page, r.Size, orders...)
}
