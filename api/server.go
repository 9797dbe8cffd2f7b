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
	"context"
	"net/http"
	"time"
)

type Server struct {
	server *http.Server
	h      *Handler
}

func NewServer(h *Handler, addr string, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		h: h,
		server: &http.Server{
			Addr:         addr,
			Handler:      h.Router(),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Start blocks until the server stops. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.h.log.Infof("Server starting on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.h.log.Info("Shutting down...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.h.log.Info("Server stopped")
	return nil
}
