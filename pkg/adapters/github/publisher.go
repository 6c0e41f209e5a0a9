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

package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	gh "github.com/google/go-github/v75/github"

	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

const (
	defaultWebHost     = "github.com"
	defaultPagesDomain = "github.io"
	defaultBranch      = "main"
)

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithMetrics records per-file results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithAuthor sets the commit author and committer.
func WithAuthor(name, email string) Option {
	return func(p *Publisher) { p.author = &gh.CommitAuthor{Name: gh.Ptr(name), Email: gh.Ptr(email)} }
}

// WithHosts overrides the web host used in repository URLs and the domain
// used in Pages URLs. Empty values keep the defaults.
func WithHosts(webHost, pagesDomain string) Option {
	return func(p *Publisher) {
		if webHost != "" {
			p.webHost = webHost
		}
		if pagesDomain != "" {
			p.pagesDomain = pagesDomain
		}
	}
}

// WithOrganization creates missing repositories under the owner as an
// organization instead of under the authenticated user.
func WithOrganization() Option {
	return func(p *Publisher) { p.createInOrg = true }
}

// Publisher writes file maps into per-task repositories. Publishing the
// same map twice is safe: existing files are updated in place using their
// blob SHA.
//
// The existence check and the write are separate calls, so two writers
// racing on the same path can still overwrite each other.
type Publisher struct {
	client      *gh.Client
	owner       string
	webHost     string
	pagesDomain string
	createInOrg bool
	author      *gh.CommitAuthor
	logger      logr.Logger
	metrics     *metrics.Metrics
}

// NewPublisher creates a Publisher for repositories owned by owner. A nil
// client yields a publisher whose every Publish fails with ErrNoCredentials.
func NewPublisher(client *gh.Client, owner string, opts ...Option) *Publisher {
	p := &Publisher{
		client:      client,
		owner:       owner,
		webHost:     defaultWebHost,
		pagesDomain: defaultPagesDomain,
		logger:      logr.Discard(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PublishOption carries per-publish details.
type PublishOption func(*publishOptions)

type publishOptions struct {
	round int
	task  string
}

// WithRound sets the round quoted in update commit messages.
func WithRound(n int) PublishOption {
	return func(o *publishOptions) { o.round = n }
}

// WithTask sets the task quoted in the description of new repositories.
func WithTask(task string) PublishOption {
	return func(o *publishOptions) { o.task = task }
}

// Predict returns the URLs a successful publish of repo will report. It
// makes no network calls.
func (p *Publisher) Predict(repo string) build.PublishResult {
	if p.owner == "" || repo == "" {
		return build.PublishResult{}
	}
	return build.PublishResult{
		RepoURL:  fmt.Sprintf("https://%s/%s/%s", p.webHost, p.owner, repo),
		PagesURL: fmt.Sprintf("https://%s.%s/%s/", p.owner, p.pagesDomain, repo),
	}
}

// Publish ensures the repository exists, writes every file in order and
// enables Pages. Individual file failures are logged and skipped; the
// commit SHA is that of the last successful write, or build.UnknownCommit.
// Failure to reach or create the repository returns an empty result and a
// *PublishError.
func (p *Publisher) Publish(ctx context.Context, repo string, files build.FileMap, opts ...PublishOption) (build.PublishResult, error) {
	o := publishOptions{round: 1}
	for _, fn := range opts {
		fn(&o)
	}
	log := p.logger.WithValues("owner", p.owner, "repo", repo)

	if p.client == nil {
		return build.PublishResult{}, &PublishError{Repo: repo, Op: "authenticate", Err: ErrNoCredentials}
	}

	r, err := p.ensureRepository(ctx, repo, o.task)
	if err != nil {
		return build.PublishResult{}, err
	}

	commit := ""
	for _, path := range files.Paths() {
		content, _ := files.Get(path)
		sha, err := p.putFile(ctx, repo, path, content, o.round)
		p.metrics.PublishFile(err == nil)
		if err != nil {
			log.Error(err, "writing file failed", "path", path)
			continue
		}
		log.V(1).Info("file written", "path", path, "commit", sha)
		if sha != "" {
			commit = sha
		}
	}
	if commit == "" {
		commit = build.UnknownCommit
	}

	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = defaultBranch
	}
	p.enablePages(ctx, log, repo, branch)

	result := p.Predict(repo)
	result.CommitSHA = commit
	log.Info("published", "pagesURL", result.PagesURL, "commit", commit)
	return result, nil
}

func (p *Publisher) ensureRepository(ctx context.Context, repo, task string) (*gh.Repository, error) {
	r, resp, err := p.client.Repositories.Get(ctx, p.owner, repo)
	if err == nil {
		return r, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return nil, &PublishError{Repo: repo, Op: "get repository", Err: err}
	}

	org := ""
	if p.createInOrg {
		org = p.owner
	}
	r, _, err = p.client.Repositories.Create(ctx, org, &gh.Repository{
		Name:        gh.Ptr(repo),
		Description: gh.Ptr(formatDescription(task)),
		Private:     gh.Ptr(false),
		AutoInit:    gh.Ptr(false),
	})
	if err != nil {
		return nil, &PublishError{Repo: repo, Op: "create repository", Err: err}
	}
	p.logger.Info("repository created", "owner", p.owner, "repo", repo)
	return r, nil
}

// putFile creates path or updates it in place, returning the commit SHA.
func (p *Publisher) putFile(ctx context.Context, repo, path, content string, round int) (string, error) {
	existing, _, resp, err := p.client.Repositories.GetContents(ctx, p.owner, repo, path, nil)
	if err != nil && (resp == nil || resp.StatusCode != http.StatusNotFound) {
		return "", fmt.Errorf("look up %s: %w", path, err)
	}

	opts := &gh.RepositoryContentFileOptions{
		Content:   []byte(content),
		Author:    p.author,
		Committer: p.author,
	}

	var res *gh.RepositoryContentResponse
	if err == nil && existing != nil && existing.SHA != nil {
		opts.Message = gh.Ptr(formatUpdateMessage(path, round))
		opts.SHA = existing.SHA
		res, _, err = p.client.Repositories.UpdateFile(ctx, p.owner, repo, path, opts)
	} else {
		opts.Message = gh.Ptr(formatAddMessage(path))
		res, _, err = p.client.Repositories.CreateFile(ctx, p.owner, repo, path, opts)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if res == nil {
		return "", nil
	}
	return res.Commit.GetSHA(), nil
}

// enablePages turns on Pages for branch at the root. An existing site,
// whatever its source, is left alone.
func (p *Publisher) enablePages(ctx context.Context, log logr.Logger, repo, branch string) {
	_, resp, err := p.client.Repositories.EnablePages(ctx, p.owner, repo, &gh.Pages{
		Source: &gh.PagesSource{Branch: gh.Ptr(branch), Path: gh.Ptr("/")},
	})
	switch {
	case err == nil:
		log.Info("pages enabled", "branch", branch)
	case resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity):
		log.V(1).Info("pages already enabled")
	default:
		log.Error(err, "enabling pages failed")
	}
}
