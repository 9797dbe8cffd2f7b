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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var bunSqlSilentMode atomic.Bool

// EnableBunSqlSilent mutes QueryHook and the slow query hook, e.g. during
// migrations.
func EnableBunSqlSilent(b bool) {
	bunSqlSilentMode.Store(b)
}

var (
	tagColor   = color.New(color.FgCyan)
	errorColor = color.New(color.BgRed, color.FgHiWhite)

	operationColors = map[string]*color.Color{
		"SELECT": color.New(color.FgGreen),
		"INSERT": color.New(color.FgBlue),
		"UPDATE": color.New(color.FgYellow),
		"DELETE": color.New(color.FgMagenta),
	}
	otherOperationColor = color.New(color.FgRed)
)

// QueryHook prints executed queries coloured by operation. The environment
// variable named by envName overrides the static settings: "0" or empty
// disables, "1" prints failed queries only, "2" prints everything.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns an enabled hook writing to w (stdout when nil).
func NewQueryHook(w io.Writer, envName string, verbose bool) *QueryHook {
	if w == nil {
		w = os.Stdout
	}
	return &QueryHook{envName: envName, enabled: true, verbose: verbose, writer: w}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode.Load() || !h.shouldPrint(event.Err) {
		return
	}

	now := time.Now()
	line := fmt.Sprintf("%s %s %12s  %s",
		now.Format("2006-01-02 15:04:05.000"),
		tagColor.Sprint("[BUN]"),
		now.Sub(event.StartTime).Round(time.Microsecond),
		colorFor(event.Operation()).Sprint(event.Query),
	)
	if event.Err != nil {
		line += "\t" + errorColor.Sprintf(" %T: %v ", event.Err, event.Err)
	}
	_, _ = fmt.Fprintln(h.writer, line)
}

// shouldPrint applies the env override, then drops successful queries and
// benign errors unless verbose.
func (h *QueryHook) shouldPrint(err error) bool {
	enabled, verbose := h.enabled, h.verbose
	if h.envName != "" {
		if v, ok := os.LookupEnv(h.envName); ok {
			enabled, verbose = v != "" && v != "0", v == "2"
		}
	}
	if !enabled {
		return false
	}
	if verbose {
		return true
	}
	return err != nil && !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, sql.ErrTxDone)
}

func colorFor(operation string) *color.Color {
	if c, ok := operationColors[operation]; ok {
		return c
	}
	return otherOperationColor
}

// slowQueryHook warns about successful queries slower than slowTime.
type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil || bunSqlSilentMode.Load() {
		return
	}
	if elapsed := time.Since(event.StartTime); elapsed > h.slowTime {
		h.logger.Warn(color.YellowString("Slow query"),
			"duration", elapsed,
			"threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
