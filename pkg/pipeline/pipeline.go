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

package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/adapters/github"
	"github.com/NissesSenap/pagesmith/pkg/attachment"
	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/enhance"
	"github.com/NissesSenap/pagesmith/pkg/generate"
	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

// Materializer writes request attachments to a directory.
type Materializer interface {
	Materialize(ctx context.Context, attachments []build.Attachment, dir string) ([]attachment.File, error)
}

// Publisher pushes files to a hosted repository.
type Publisher interface {
	Publish(ctx context.Context, repo string, files build.FileMap, opts ...github.PublishOption) (build.PublishResult, error)
	Predict(repo string) build.PublishResult
}

// Notifier reports a result to the evaluation URL.
type Notifier interface {
	Notify(ctx context.Context, payload build.EvaluationPayload, url string) bool
}

// ProjectFiles adds repository boilerplate such as README.md and LICENSE
// to a generated file set.
type ProjectFiles interface {
	Complete(files *build.FileMap, b generate.Brief) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithMaterializer(m Materializer) Option {
	return func(p *Pipeline) { p.materializer = m }
}

func WithScanner(s *Scanner) Option {
	return func(p *Pipeline) { p.scanner = s }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l logr.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithWorkDir sets the parent of the per-job attachment directories.
// The default is the system temp directory.
// WithProjectFiles completes every generated file set with the project
// files pf provides before it is published.
func WithProjectFiles(pf ProjectFiles) Option {
	return func(p *Pipeline) { p.project = pf }
}

func WithWorkDir(dir string) Option {
	return func(p *Pipeline) { p.workDir = dir }
}

// Pipeline drives a job from Authorized to a terminal state.
type Pipeline struct {
	generator    generate.Generator
	publisher    Publisher
	notifier     Notifier
	materializer Materializer
	scanner      *Scanner
	observer     Observer
	metrics      *metrics.Metrics
	project      ProjectFiles
	logger       logr.Logger
	workDir      string
}

// New creates a Pipeline. The generator should not fail; wrap completion
// backed generators in generate.FallbackGenerator.
func New(gen generate.Generator, pub Publisher, notifier Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator:    gen,
		publisher:    pub,
		notifier:     notifier,
		materializer: attachment.NewMaterializer(),
		scanner:      NewScanner(),
		observer:     nopObserver{},
		logger:       logr.Discard(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Predict returns the URLs a successful run of req will publish to.
func (p *Pipeline) Predict(req build.Request) build.PublishResult {
	return p.publisher.Predict(build.RepoName(req.Task))
}

// Authorize moves a received job to Authorized.
func (p *Pipeline) Authorize(job *Job) error {
	return p.advance(job, build.StateAuthorized, "secret verified")
}

// Reject moves a received job to Rejected and completes it.
func (p *Pipeline) Reject(job *Job) error {
	if err := p.advance(job, build.StateRejected, "invalid secret"); err != nil {
		return err
	}
	p.complete(job, Outcome{JobID: job.ID, State: job.State})
	return nil
}

// Process runs an authorized job to completion and returns its outcome.
// The outcome is also delivered on job.Done.
func (p *Pipeline) Process(ctx context.Context, job *Job) Outcome {
	out := p.process(ctx, job)
	p.complete(job, out)
	return out
}

func (p *Pipeline) process(ctx context.Context, job *Job) Outcome {
	req := job.Request
	log := p.logger.WithValues("job", job.ID, "task", req.Task, "round", req.Round)
	out := Outcome{JobID: job.ID}

	if job.State != build.StateAuthorized {
		out.State = job.State
		out.Err = fmt.Errorf("job %s is %s, not %s", job.ID, job.State, build.StateAuthorized)
		return out
	}

	files, err := p.generate(ctx, log, job)
	if err != nil {
		log.Error(err, "generation failed")
		out.State, out.Err = job.State, err
		return out
	}
	if err := p.advance(job, build.StateGenerated, fmt.Sprintf("%d files generated", files.Len())); err != nil {
		out.State, out.Err = job.State, err
		return out
	}

	if findings := p.scanner.Scan(files); len(findings) > 0 {
		for _, f := range findings {
			log.Info("secret-like content found", "path", f.Path, "kind", f.Kind)
		}
		_ = p.advance(job, build.StateAborted, fmt.Sprintf("%d secret-like findings, not publishing", len(findings)))
		out.State = job.State
		out.Err = fmt.Errorf("%w: %d findings", ErrSecretLeak, len(findings))
		return out
	}

	repo := build.RepoName(req.Task)
	result, err := p.publisher.Publish(ctx, repo, files, github.WithRound(req.Round), github.WithTask(req.Task))
	msg := "published to " + result.PagesURL
	if err != nil {
		log.Error(err, "publish failed", "repo", repo)
		result = build.PublishResult{}
		out.Err = err
		msg = "publish failed: " + err.Error()
	}
	out.Result = result
	if err := p.advance(job, build.StatePublished, msg); err != nil {
		out.State, out.Err = job.State, err
		return out
	}

	if req.EvaluationURL != "" {
		payload := build.NewEvaluationPayload(&req, result)
		out.Notified = p.notifier.Notify(ctx, payload, req.EvaluationURL)
		notifyMsg := "evaluation notified"
		if !out.Notified {
			notifyMsg = "evaluation notification failed"
		}
		_ = p.advance(job, build.StateNotified, notifyMsg)
	}

	_ = p.advance(job, build.StateDone, "done")
	out.State = job.State
	log.Info("job finished", "pagesURL", result.PagesURL, "commit", result.CommitSHA, "notified", out.Notified,
		"duration", time.Since(job.ReceivedAt).String())
	return out
}

func (p *Pipeline) generate(ctx context.Context, log logr.Logger, job *Job) (build.FileMap, error) {
	req := job.Request
	brief := generate.Brief{Task: req.Task, Round: req.Round, Brief: req.Brief, Checks: req.Checks}

	if len(req.Attachments) > 0 {
		dir, err := os.MkdirTemp(p.workDir, "pagesmith-"+job.ID+"-")
		if err != nil {
			return build.FileMap{}, fmt.Errorf("creating attachment directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(dir) }()

		files, err := p.materializer.Materialize(ctx, req.Attachments, dir)
		if err != nil {
			log.Error(err, "some attachments could not be materialized", "materialized", len(files))
		}
		brief.Attachments = files
	}

	files, err := p.generator.Generate(ctx, brief)
	if err != nil {
		return build.FileMap{}, err
	}
	if p.project != nil {
		if err := p.project.Complete(&files, brief); err != nil {
			log.Error(err, "project files could not be added")
		}
	}
	return enhance.Enhance(files), nil
}

func (p *Pipeline) advance(job *Job, to build.State, msg string) error {
	next, err := build.Transition(job.State, to)
	if err != nil {
		p.logger.Error(err, "invalid job transition", "job", job.ID)
		return err
	}
	p.logger.V(1).Info("job transition", "job", job.ID, "from", job.State, "to", next, "message", msg)
	job.State = next
	p.metrics.JobState(string(next))
	p.observer.Observe(Event{JobID: job.ID, State: next, Message: msg, Time: time.Now()})
	return nil
}

func (p *Pipeline) complete(job *Job, out Outcome) {
	msg := "job complete"
	if out.Err != nil {
		msg = out.Err.Error()
	}
	p.observer.Observe(Event{JobID: job.ID, State: out.State, Message: msg, Time: time.Now(), Final: true})
	job.finish(out)
}
