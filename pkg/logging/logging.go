/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging builds the logr.Logger used by every pagesmith component.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the root logger.
type Options struct {
	// Development selects a human-readable console encoder and enables
	// V(1) output.
	Development bool
	// Verbosity is the highest logr V-level that is emitted.
	Verbosity int
}

// New returns a zap-backed logr.Logger and a flush function that should be
// deferred by the caller.
func New(opts Options) (logr.Logger, func(), error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		if opts.Verbosity < 1 {
			opts.Verbosity = 1
		}
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	// logr V(n) maps to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-opts.Verbosity))

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("building zap logger: %w", err)
	}
	flush := func() { _ = zl.Sync() }
	return zapr.NewLogger(zl), flush, nil
}
