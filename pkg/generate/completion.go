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

	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

// CompletionGenerator asks a language model for the app files.
type CompletionGenerator struct {
	completer Completer
	provider  string
	logger    logr.Logger
}

// NewCompletionGenerator creates a generator backed by c. provider names the
// backend in errors and logs.
func NewCompletionGenerator(c Completer, provider string, logger logr.Logger) *CompletionGenerator {
	return &CompletionGenerator{completer: c, provider: provider, logger: logger}
}

// Generate sends the prompt and parses the reply with ParseFileMap.
// Provider failures are returned as *GenerationError.
func (g *CompletionGenerator) Generate(ctx context.Context, b Brief) (build.FileMap, error) {
	prompt := BuildPrompt(b)
	g.logger.V(1).Info("requesting completion", "provider", g.provider, "task", b.Task, "promptBytes", len(prompt))

	reply, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return build.FileMap{}, &GenerationError{Provider: g.provider, Err: err}
	}
	files := ParseFileMap(reply)
	g.logger.V(1).Info("completion parsed", "provider", g.provider, "files", files.Paths())
	return files, nil
}
