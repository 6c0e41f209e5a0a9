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

// Package pagesmith wires the configured components into runnable modules.
package pagesmith

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/NissesSenap/pagesmith/pkg/adapters/github"
	"github.com/NissesSenap/pagesmith/pkg/api"
	"github.com/NissesSenap/pagesmith/pkg/attachment"
	"github.com/NissesSenap/pagesmith/pkg/generate"
	"github.com/NissesSenap/pagesmith/pkg/metrics"
	"github.com/NissesSenap/pagesmith/pkg/notify"
	"github.com/NissesSenap/pagesmith/pkg/pipeline"
)

// Module represents a runnable component
type Module interface {
	Name() string
	Run(ctx context.Context) error
}

// Pagesmith owns every component of a running service.
type Pagesmith struct {
	cfg     Config
	log     logr.Logger
	metrics *metrics.Metrics
	events  *api.EventHub
	queue   *pipeline.Queue
	server  *api.Server
	modules []Module
}

// New validates cfg and builds the HTTP server and the worker pool.
func New(ctx context.Context, cfg Config, log logr.Logger) (*Pagesmith, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	for _, w := range cfg.Warnings() {
		log.Info("configuration warning", "warning", w)
	}

	p := &Pagesmith{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		events:  api.NewEventHub(0),
	}
	if err := p.initModules(ctx); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}
	return p, nil
}

func (p *Pagesmith) initModules(ctx context.Context) error {
	cfg := p.cfg

	gen, tmpl, err := p.newGenerator(ctx)
	if err != nil {
		return err
	}

	publisher, err := p.newPublisher()
	if err != nil {
		return err
	}

	notifier := notify.New(
		notify.WithMaxAttempts(cfg.NotifyMaxAttempts),
		notify.WithBackoffUnit(cfg.NotifyBackoffUnit),
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithSecret(cfg.CallbackSecret),
		notify.WithLogger(p.log.WithName("notify")),
		notify.WithMetrics(p.metrics),
	)

	materializer := attachment.NewMaterializer(
		attachment.WithTimeout(cfg.AttachmentTimeout),
		attachment.WithLogger(p.log.WithName("attachment")),
	)

	pl := pipeline.New(gen, publisher, notifier,
		pipeline.WithMaterializer(materializer),
		pipeline.WithScanner(pipeline.NewScanner(p.secrets()...)),
		pipeline.WithProjectFiles(tmpl),
		pipeline.WithObserver(p.events),
		pipeline.WithMetrics(p.metrics),
		pipeline.WithLogger(p.log.WithName("pipeline")),
	)

	p.queue = pipeline.NewQueue(pl,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithCapacity(cfg.QueueSize),
		pipeline.WithQueueLogger(p.log.WithName("queue")),
		pipeline.WithQueueMetrics(p.metrics),
	)

	p.server, err = api.NewServer(api.Options{
		ListenAddr:         cfg.ListenAddr,
		Secret:             cfg.Secret,
		Mode:               cfg.ResponseMode,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Pipeline:           pl,
		Queue:              p.queue,
		Events:             p.events,
		Metrics:            p.metrics,
		Logger:             p.log,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	p.modules = []Module{p.queue, p.server}
	return nil
}

// newGenerator returns the configured strategy. Completion strategies are
// wrapped so that any provider failure falls back to the template. The
// template generator is also returned for completing project files.
func (p *Pagesmith) newGenerator(ctx context.Context) (generate.Generator, *generate.TemplateGenerator, error) {
	cfg := p.cfg
	author := cfg.GitHubUsername
	if author == "" {
		author = cfg.GitAuthorName
	}
	tmpl := generate.NewTemplateGenerator(generate.WithAuthor(author))
	genLog := p.log.WithName("generate")

	var primary generate.Generator
	switch cfg.LLMProvider {
	case ProviderGemini:
		c, err := generate.NewGenAICompleter(ctx, generate.GenAIConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		primary = generate.NewCompletionGenerator(c, ProviderGemini, genLog)
	case ProviderOpenAI:
		c, err := generate.NewOpenAICompleter(generate.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		primary = generate.NewCompletionGenerator(c, ProviderOpenAI, genLog)
	}
	p.log.Info("content generator configured", "provider", cfg.LLMProvider)

	return generate.NewFallbackGenerator(primary, tmpl,
		generate.WithLogger(genLog),
		generate.WithFallbackHook(func(error) { p.metrics.GenerationFallback() }),
	), tmpl, nil
}

// newPublisher builds the GitHub publisher. Missing credentials give a
// publisher that fails every publish instead of a startup error.
func (p *Pagesmith) newPublisher() (*github.Publisher, error) {
	cfg := p.cfg
	client, err := github.NewClient(github.ClientConfig{
		Token:          cfg.GitHubToken,
		AppID:          cfg.GitHubAppID,
		InstallationID: cfg.GitHubInstallationID,
		PrivateKeyPath: cfg.GitHubPrivateKeyPath,
		APIURL:         cfg.GitHubAPIURL,
		HTTPClient:     &http.Client{Timeout: cfg.GitHubTimeout},
	})
	if err != nil && !errors.Is(err, github.ErrNoCredentials) {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	opts := []github.Option{
		github.WithLogger(p.log.WithName("publisher")),
		github.WithMetrics(p.metrics),
		github.WithAuthor(cfg.GitAuthorName, cfg.GitAuthorEmail),
		github.WithHosts(cfg.GitHubWebHost, cfg.PagesDomain),
	}
	if cfg.GitHubToken == "" && cfg.UsesGitHubApp() {
		opts = append(opts, github.WithOrganization())
	}
	return github.NewPublisher(client, cfg.GitHubUsername, opts...), nil
}

// secrets lists configured values that must never appear in published files.
func (p *Pagesmith) secrets() []string {
	cfg := p.cfg
	return []string{cfg.Secret, cfg.GitHubToken, cfg.GeminiAPIKey, cfg.OpenAIAPIKey, cfg.CallbackSecret}
}

// Handler returns the HTTP handler of the API server.
func (p *Pagesmith) Handler() http.Handler {
	return p.server.Handler()
}

// Metrics returns the registry shared by all components.
func (p *Pagesmith) Metrics() *metrics.Metrics {
	return p.metrics
}

// Modules lists the runnable components in start order.
func (p *Pagesmith) Modules() []Module {
	return p.modules
}

// Run starts all modules and blocks until ctx is cancelled or one fails.
func (p *Pagesmith) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, m := range p.modules {
		g.Go(func() error {
			p.log.Info("starting module", "module", m.Name())
			if err := m.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}
