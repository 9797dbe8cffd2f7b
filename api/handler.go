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

// Package api exposes the member searches over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/memberquery/database"
	"github.com/tomoncle/memberquery/dto"
	"github.com/tomoncle/memberquery/entity"
	"github.com/tomoncle/memberquery/types"
	"github.com/tomoncle/memberquery/utils"
)

// MemberSearcher is the part of the member service used by the handlers.
type MemberSearcher interface {
	Search(ctx context.Context, condition dto.MemberSearchCondition) ([]*dto.MemberTeam, error)
	SearchPage(ctx context.Context, condition dto.MemberSearchCondition, page *types.PageRequest, optimized bool) (*types.Pagination[dto.MemberTeam], error)
}

// TeamFinder looks up a team with its members.
type TeamFinder interface {
	GetByName(ctx context.Context, name string) (*entity.Team, error)
}

// HealthChecker reports database health.
type HealthChecker func(ctx context.Context) *database.HealthStatus

// Options tunes request binding and CORS.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	AllowedOrigins  []string
	RequestTimeout  time.Duration
}

type Handler struct {
	members  MemberSearcher
	teams    TeamFinder
	health   HealthChecker
	validate *validator.Validate
	opts     Options
	log      *logrus.Logger
}

// NewHandler wires the handlers. A nil health checker uses the global
// database health status.
func NewHandler(members MemberSearcher, teams TeamFinder, health HealthChecker, opts Options) *Handler {
	if health == nil {
		health = database.GetHealthStatus
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = types.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{
		members:  members,
		teams:    teams,
		health:   health,
		validate: newValidator(),
		opts:     opts,
		log:      utils.NewLogger("API"),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.requestLogger)
	if h.opts.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(h.opts.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)

	r.Get("/v1/members", h.handleSearchMembers)
	r.Get("/v2/members", h.handleSearchMembersSimple)
	r.Get("/v3/members", h.handleSearchMembersComplex)

	r.Get("/teams/{name}", h.handleTeamGet)

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"req_method":   r.Method,
			"req_uri":      r.RequestURI,
			"status_code":  ww.Status(),
			"latency_time": time.Since(start).String(),
			"request_id":   chimiddleware.GetReqID(r.Context()),
		}).Info("request served")
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.health(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
