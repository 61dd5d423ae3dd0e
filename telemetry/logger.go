// Copyright (c) 2018 NEC Laboratories Europe GmbH.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides the logging and metrics collaborators the
// replica and client engines call into. Both are optional: a nil *Metrics
// or a nil Logger field is handled by the caller, the same way
// storacha-piri's jobqueue wiring treats a missing logger as "use
// DiscardLogger" rather than requiring every caller to nil-check.
package telemetry

import "go.uber.org/zap"

// Logger is a small structured-logging interface, reproduced locally the
// way storacha-piri's lib/jobqueue/logger package wraps zap, so call
// sites depend on a handful of methods rather than *zap.SugaredLogger
// directly.
type Logger interface {
	Debug(args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// DiscardLogger implements Logger with no-ops, for callers that don't want
// to thread a nil check through every log call.
type DiscardLogger struct{}

var _ Logger = (*DiscardLogger)(nil)

func (DiscardLogger) Debug(args ...interface{})                       {}
func (DiscardLogger) Debugf(format string, args ...interface{})       {}
func (DiscardLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (DiscardLogger) Info(args ...interface{})                        {}
func (DiscardLogger) Infof(format string, args ...interface{})        {}
func (DiscardLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (DiscardLogger) Warn(args ...interface{})                        {}
func (DiscardLogger) Warnf(format string, args ...interface{})        {}
func (DiscardLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (DiscardLogger) Error(args ...interface{})                       {}
func (DiscardLogger) Errorf(format string, args ...interface{})       {}
func (DiscardLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// zapLogger adapts *zap.SugaredLogger to Logger.
type zapLogger struct {
	*zap.SugaredLogger
}

var _ Logger = (*zapLogger)(nil)

// NewZapLogger wraps a *zap.Logger (e.g. zap.NewProduction()) as a Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l.Sugar()}
}
