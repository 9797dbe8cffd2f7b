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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func queryEvent(query string, err error) *bun.QueryEvent {
	return &bun.QueryEvent{Query: query, StartTime: time.Now().Add(-time.Millisecond), Err: err}
}

func TestQueryHookPrintsFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, "", false)

	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", nil))
	assert.Empty(t, buf.String())

	hook.AfterQuery(context.Background(), queryEvent("INSERT INTO team (name) VALUES ('x')", errors.New("boom")))
	assert.Contains(t, buf.String(), "INSERT INTO team")
	assert.Contains(t, buf.String(), "boom")
}

func TestQueryHookVerbose(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, "", true)

	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", nil))
	assert.Contains(t, buf.String(), "SELECT 1")
	assert.Contains(t, buf.String(), "[BUN]")
}

func TestQueryHookEnvOverride(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, "MEMBERQUERY_TEST_BUNDEBUG", true)

	t.Setenv("MEMBERQUERY_TEST_BUNDEBUG", "0")
	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", errors.New("boom")))
	assert.Empty(t, buf.String())

	t.Setenv("MEMBERQUERY_TEST_BUNDEBUG", "1")
	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", nil))
	assert.Empty(t, buf.String())

	t.Setenv("MEMBERQUERY_TEST_BUNDEBUG", "2")
	hook.AfterQuery(context.Background(), queryEvent("SELECT 2", nil))
	assert.Contains(t, buf.String(), "SELECT 2")
}

func TestQueryHookSilentMode(t *testing.T) {
	var buf bytes.Buffer
	hook := NewQueryHook(&buf, "", true)

	EnableBunSqlSilent(true)
	defer EnableBunSqlSilent(false)
	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", errors.New("boom")))
	assert.Empty(t, buf.String())
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) SetLevel(LogLevel) {}
func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{}) {}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Warn(msg string, _ ...interface{}) { l.warnings = append(l.warnings, msg) }

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := &slowQueryHook{slowTime: 10 * time.Millisecond, logger: logger}

	hook.AfterQuery(context.Background(), queryEvent("SELECT 1", nil))
	assert.Empty(t, logger.warnings)

	slow := &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now().Add(-time.Second)}
	hook.AfterQuery(context.Background(), slow)
	assert.Len(t, logger.warnings, 1)

	slow.Err = errors.New("boom")
	hook.AfterQuery(context.Background(), slow)
	assert.Len(t, logger.warnings, 1)
}
