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

package generate

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

// FallbackGenerator runs a primary generator and substitutes the template
// output whenever the primary fails or returns files that cannot be
// published. It never returns the primary's error.
type FallbackGenerator struct {
	primary  Generator
	fallback *TemplateGenerator
	logger   logr.Logger
	onFall   func(error)
}

// FallbackOption configures a FallbackGenerator.
type FallbackOption func(*FallbackGenerator)

// WithLogger sets the logger used to report primary failures.
func WithLogger(l logr.Logger) FallbackOption {
	return func(g *FallbackGenerator) { g.logger = l }
}

// WithFallbackHook registers fn to be called with the cause every time the
// fallback is used.
func WithFallbackHook(fn func(error)) FallbackOption {
	return func(g *FallbackGenerator) { g.onFall = fn }
}

// NewFallbackGenerator wraps primary. A nil primary always uses fallback.
func NewFallbackGenerator(primary Generator, fallback *TemplateGenerator, opts ...FallbackOption) *FallbackGenerator {
	g := &FallbackGenerator{
		primary:  primary,
		fallback: fallback,
		logger:   logr.Discard(),
		onFall:   func(error) {},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *FallbackGenerator) Generate(ctx context.Context, b Brief) (build.FileMap, error) {
	if g.primary == nil {
		return g.fallback.Generate(ctx, b)
	}

	files, err := g.primary.Generate(ctx, b)
	if err == nil {
		if verr := files.Validate(); verr != nil {
			err = fmt.Errorf("generated files rejected: %w", verr)
		}
	}
	if err != nil {
		g.logger.Error(err, "content generation failed, using template", "task", b.Task)
		g.onFall(err)
		return g.fallback.Generate(ctx, b)
	}

	return files, nil
}
