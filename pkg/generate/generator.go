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

// Package generate turns a task brief into the files of a static web app.
//
// Two strategies exist: a deterministic template renderer and a
// completion-backed generator that asks a language model for a JSON object
// of filename to content. FallbackGenerator combines them so callers always
// receive a publishable file map.
package generate

import (
	"context"
	"fmt"

	"github.com/NissesSenap/pagesmith/pkg/attachment"
	"github.com/NissesSenap/pagesmith/pkg/build"
)

// Brief is the input to a Generator.
type Brief struct {
	Task        string
	Round       int
	Brief       string
	Checks      []string
	Attachments []attachment.File
}

// Generator produces the files of an app.
type Generator interface {
	Generate(ctx context.Context, b Brief) (build.FileMap, error)
}

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerationError wraps a failure of the content provider.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
