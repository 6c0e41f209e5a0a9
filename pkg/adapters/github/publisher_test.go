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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	gh "github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

type fakeFile struct {
	sha     string
	content string
}

type putRecord struct {
	Path    string
	Message string
	SHA     string
	Author  string
}

// fakeGitHub is an in-memory stand-in for the repository, contents and
// pages endpoints.
type fakeGitHub struct {
	mu        sync.Mutex
	repos     map[string]map[string]fakeFile
	pages     map[string]bool
	puts      []putRecord
	creates   []string
	commits   int
	failPaths map[string]bool
	failGet   bool
	failNew   bool
	failPages int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		repos:     map[string]map[string]fakeFile{},
		pages:     map[string]bool{},
		failPaths: map[string]bool{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failGet {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		if _, ok := f.repos[r.PathValue("repo")]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": r.PathValue("repo"), "default_branch": "main"})
	})

	create := func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failNew {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Resource not accessible"})
			return
		}
		var body struct {
			Name     string `json:"name"`
			Private  bool   `json:"private"`
			AutoInit bool   `json:"auto_init"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.creates = append(f.creates, r.URL.Path)
		f.repos[body.Name] = map[string]fakeFile{}
		writeJSON(w, http.StatusCreated, map[string]any{"name": body.Name, "private": body.Private})
	}
	mux.HandleFunc("POST /api/v3/user/repos", create)
	mux.HandleFunc("POST /api/v3/orgs/{org}/repos", create)

	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		file, ok := f.repos[r.PathValue("repo")][r.PathValue("path")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"type": "file", "path": r.PathValue("path"), "sha": file.sha})
	})

	mux.HandleFunc("PUT /api/v3/repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		path := r.PathValue("path")
		if f.failPaths[path] {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		var body struct {
			Message string `json:"message"`
			Content []byte `json:"content"`
			SHA     string `json:"sha"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		files := f.repos[r.PathValue("repo")]
		if existing, ok := files[path]; ok && existing.sha != body.SHA {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "sha mismatch"})
			return
		}
		f.puts = append(f.puts, putRecord{Path: path, Message: body.Message, SHA: body.SHA, Author: body.Author.Name})
		f.commits++
		blob := fmt.Sprintf("blob-%d", f.commits)
		files[path] = fakeFile{sha: blob, content: string(body.Content)}
		writeJSON(w, http.StatusCreated, map[string]any{
			"content": map[string]any{"path": path, "sha": blob},
			"commit":  map[string]any{"sha": fmt.Sprintf("commit-%d", f.commits)},
		})
	})

	mux.HandleFunc("POST /api/v3/repos/{owner}/{repo}/pages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		repo := r.PathValue("repo")
		if f.failPages != 0 {
			writeJSON(w, f.failPages, map[string]string{"message": http.StatusText(f.failPages)})
			return
		}
		if f.pages[repo] {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "GitHub Pages is already enabled."})
			return
		}
		f.pages[repo] = true
		writeJSON(w, http.StatusCreated, map[string]any{"html_url": "https://octo.github.io/" + repo + "/"})
	})

	return mux
}

func newTestPublisher(t *testing.T, f *fakeGitHub, opts ...Option) *Publisher {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	client, err := gh.NewClient(nil).WithEnterpriseURLs(srv.URL+"/", srv.URL+"/upload/")
	require.NoError(t, err)
	return NewPublisher(client, "octo", opts...)
}

func demoFiles() build.FileMap {
	return build.NewFileMap(
		"index.html", "<html><body>hi</body></html>",
		"style.css", "body {}",
		"README.md", "# demo",
	)
}

func TestPublisher_FreshRepository(t *testing.T) {
	f := newFakeGitHub()
	m := metrics.New()
	p := newTestPublisher(t, f, WithAuthor("pagesmith", "bot@example.com"), WithMetrics(m))

	res, err := p.Publish(context.Background(), "demo", demoFiles(), WithTask("demo"))
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/octo/demo", res.RepoURL)
	assert.Equal(t, "https://octo.github.io/demo/", res.PagesURL)
	assert.Equal(t, "commit-3", res.CommitSHA)

	assert.Equal(t, []string{"/api/v3/user/repos"}, f.creates)
	require.Len(t, f.puts, 3)
	assert.Equal(t, []string{"index.html", "style.css", "README.md"}, []string{f.puts[0].Path, f.puts[1].Path, f.puts[2].Path})
	assert.Equal(t, "Add index.html", f.puts[0].Message)
	assert.Empty(t, f.puts[0].SHA)
	assert.Equal(t, "pagesmith", f.puts[0].Author)
	assert.Equal(t, "<html><body>hi</body></html>", f.repos["demo"]["index.html"].content)
	assert.True(t, f.pages["demo"])
}

func TestPublisher_Idempotent(t *testing.T) {
	f := newFakeGitHub()
	p := newTestPublisher(t, f)

	first, err := p.Publish(context.Background(), "demo", demoFiles())
	require.NoError(t, err)
	blob := f.repos["demo"]["index.html"].sha

	updated := demoFiles()
	updated.Set("index.html", "<html><body>v2</body></html>")
	second, err := p.Publish(context.Background(), "demo", updated, WithRound(2))
	require.NoError(t, err)

	assert.Equal(t, first.RepoURL, second.RepoURL)
	assert.Equal(t, first.PagesURL, second.PagesURL)
	assert.NotEqual(t, first.CommitSHA, second.CommitSHA)
	assert.Len(t, f.creates, 1, "repository must be created once")

	require.Len(t, f.puts, 6)
	assert.Equal(t, blob, f.puts[3].SHA)
	assert.Equal(t, "Update index.html (round 2)", f.puts[3].Message)
	assert.Equal(t, "<html><body>v2</body></html>", f.repos["demo"]["index.html"].content)
}

func TestPublisher_FileFailureSkipped(t *testing.T) {
	f := newFakeGitHub()
	f.failPaths["README.md"] = true
	p := newTestPublisher(t, f)

	res, err := p.Publish(context.Background(), "demo", demoFiles())
	require.NoError(t, err)
	assert.Equal(t, "commit-2", res.CommitSHA)
	assert.Len(t, f.puts, 2)
}

func TestPublisher_NoWritesGiveUnknownCommit(t *testing.T) {
	f := newFakeGitHub()
	f.failPaths["index.html"] = true
	p := newTestPublisher(t, f)

	res, err := p.Publish(context.Background(), "demo", build.NewFileMap("index.html", "x"))
	require.NoError(t, err)
	assert.Equal(t, build.UnknownCommit, res.CommitSHA)
	assert.True(t, res.Published())
}

func TestPublisher_PagesFailureNeverAbortsPublish(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "already enabled", status: http.StatusUnprocessableEntity},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGitHub()
			f.failPages = tt.status
			p := newTestPublisher(t, f)

			res, err := p.Publish(context.Background(), "demo", demoFiles())
			require.NoError(t, err)
			assert.Equal(t, "https://github.com/octo/demo", res.RepoURL)
			assert.Equal(t, "https://octo.github.io/demo/", res.PagesURL)
			assert.NotEmpty(t, res.CommitSHA)
			assert.Len(t, f.puts, 3)
		})
	}
}

func TestPublisher_CreateFailure(t *testing.T) {
	f := newFakeGitHub()
	f.failNew = true
	p := newTestPublisher(t, f)

	res, err := p.Publish(context.Background(), "demo", demoFiles())
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "create repository", pubErr.Op)
	assert.Equal(t, build.PublishResult{}, res)
	assert.Empty(t, f.puts)
}

func TestPublisher_GetFailure(t *testing.T) {
	f := newFakeGitHub()
	f.failGet = true
	p := newTestPublisher(t, f)

	_, err := p.Publish(context.Background(), "demo", demoFiles())
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "get repository", pubErr.Op)
	assert.Empty(t, f.creates)
}

func TestPublisher_Organization(t *testing.T) {
	f := newFakeGitHub()
	p := newTestPublisher(t, f, WithOrganization())

	_, err := p.Publish(context.Background(), "demo", demoFiles())
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/v3/orgs/octo/repos"}, f.creates)
}

func TestPublisher_NoClient(t *testing.T) {
	p := NewPublisher(nil, "octo")
	res, err := p.Publish(context.Background(), "demo", demoFiles())
	require.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, build.PublishResult{}, res)

	assert.Equal(t, "https://octo.github.io/demo/", p.Predict("demo").PagesURL)
}

func TestPublisher_Predict(t *testing.T) {
	p := NewPublisher(nil, "acct", WithHosts("ghe.example.com", "pages.example.com"))
	res := p.Predict("demo")
	assert.Equal(t, "https://ghe.example.com/acct/demo", res.RepoURL)
	assert.Equal(t, "https://acct.pages.example.com/demo/", res.PagesURL)
	assert.Empty(t, res.CommitSHA)

	assert.Equal(t, build.PublishResult{}, NewPublisher(nil, "").Predict("demo"))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Add index.html", formatAddMessage("index.html"))
	assert.Equal(t, "Update app.js (round 3)", formatUpdateMessage("app.js", 3))
	assert.Equal(t, "Update app.js (round 1)", formatUpdateMessage("app.js", 0))
	assert.Equal(t, "Generated app for task demo", formatDescription("demo"))
	assert.Empty(t, formatDescription(""))
}
