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
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/memberquery/utils"
)

const loggerName = "DATABASE"

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return levelNames[LogLevelDebug]
	}
	return levelNames[l]
}

// Logger is the key/value logger shared by the database and repository
// packages. fields alternate key, value; a trailing key without a value is
// dropped.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

var (
	loggerMu      sync.Mutex
	packageLogger Logger
)

// InitLogger installs log as the package logger. It has no effect once a
// logger is in place, including the default one created by GetLogger.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if packageLogger == nil {
		packageLogger = log
	}
}

// GetLogger returns the package logger, defaulting to the DATABASE logrus
// logger.
func GetLogger() Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if packageLogger == nil {
		packageLogger = NewDefaultLogger(utils.NewLogger(loggerName))
	}
	return packageLogger
}

// DefaultLogger writes through logrus. Pairs become logrus fields and are
// also appended to the message, which keeps them visible with the console
// formatter.
type DefaultLogger struct {
	logger *logrus.Logger
}

func NewDefaultLogger(l *logrus.Logger) *DefaultLogger {
	return &DefaultLogger{logger: l}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.log(logrus.DebugLevel, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.log(logrus.InfoLevel, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.log(logrus.WarnLevel, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.log(logrus.ErrorLevel, msg, fields)
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.logger.SetLevel(utils.ParseLogLevel(strings.ToLower(level.String())))
}

func (l *DefaultLogger) log(level logrus.Level, msg string, pairs []interface{}) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	fields := make(logrus.Fields, len(pairs)/2)
	var text strings.Builder
	text.WriteString(msg)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		fields[key] = pairs[i+1]
		fmt.Fprintf(&text, " %s=%v", key, pairs[i+1])
	}
	l.logger.WithFields(fields).Log(level, text.String())
}
