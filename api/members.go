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
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/types"
)

// pageResponse flattens types.Pagination with its derived fields.
type pageResponse struct {
	Items      []*dto.MemberTeam `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	First      bool              `json:"first"`
	Last       bool              `json:"last"`
}

func newPageResponse(p *types.Pagination[dto.MemberTeam]) pageResponse {
	return pageResponse{
		Items:      p.Items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
		First:      p.IsFirst(),
		Last:       p.IsLast(),
	}
}

func (h *Handler) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	const handlerName = "members_v1"

	req, err := h.bindMemberSearch(r.URL.Query())
	if err != nil {
		h.badRequest(w, handlerName, err)
		return
	}

	rows, err := h.members.Search(r.Context(), req.condition())
	if err != nil {
		h.internalError(w, handlerName, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleSearchMembersSimple(w http.ResponseWriter, r *http.Request) {
	h.searchPage(w, r, "members_v2", false)
}

func (h *Handler) handleSearchMembersComplex(w http.ResponseWriter, r *http.Request) {
	h.searchPage(w, r, "members_v3", true)
}

func (h *Handler) searchPage(w http.ResponseWriter, r *http.Request, handlerName string, optimized bool) {
	req, err := h.bindMemberSearch(r.URL.Query())
	if err != nil {
		h.badRequest(w, handlerName, err)
		return
	}

	page, err := h.members.SearchPage(r.Context(), req.condition(), req.pageRequest(), optimized)
	if err != nil {
		h.internalError(w, handlerName, err)
		return
	}
	respondJSON(w, http.StatusOK, newPageResponse(page))
}

func (h *Handler) handleTeamGet(w http.ResponseWriter, r *http.Request) {
	const handlerName = "team_get"

	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, codeBadRequest, "team name is required")
		return
	}

	team, err := h.teams.GetByName(r.Context(), name)
	if err != nil {
		h.internalError(w, handlerName, err)
		return
	}
	if team == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "team not found")
		return
	}
	respondJSON(w, http.StatusOK, team)
}
