//go:build e2e

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

package e2e

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type commit struct {
	Repo    string
	Path    string
	Message string
}

// fakeGitHub keeps repositories and file contents in memory.
type fakeGitHub struct {
	mu      sync.Mutex
	files   map[string]map[string]string
	shas    map[string]map[string]string
	pages   map[string]bool
	commits []commit
	calls   int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		files: map[string]map[string]string{},
		shas:  map[string]map[string]string{},
		pages: map[string]bool{},
	}
}

func (f *fakeGitHub) file(repo, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.files[repo][path]
	return c, ok
}

func (f *fakeGitHub) hasRepo(repo string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[repo]
	return ok
}

func (f *fakeGitHub) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGitHub) commitsFor(repo string) []commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []commit
	for _, c := range f.commits {
		if c.Repo == repo {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.files[r.PathValue("repo")]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": r.PathValue("repo"), "default_branch": "main"})
	})

	mux.HandleFunc("POST /api/v3/user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.files[body.Name] = map[string]string{}
		f.shas[body.Name] = map[string]string{}
		writeJSON(w, http.StatusCreated, map[string]any{"name": body.Name})
	})

	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		sha, ok := f.shas[r.PathValue("repo")][r.PathValue("path")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"type": "file", "path": r.PathValue("path"), "sha": sha})
	})

	mux.HandleFunc("PUT /api/v3/repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		content, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		repo, path := r.PathValue("repo"), r.PathValue("path")
		f.commits = append(f.commits, commit{Repo: repo, Path: path, Message: body.Message})
		sha := fmt.Sprintf("commit-%d", len(f.commits))
		f.files[repo][path] = string(content)
		f.shas[repo][path] = "blob-" + sha
		writeJSON(w, http.StatusCreated, map[string]any{
			"content": map[string]any{"path": path, "sha": "blob-" + sha},
			"commit":  map[string]any{"sha": sha},
		})
	})

	mux.HandleFunc("POST /api/v3/repos/{owner}/{repo}/pages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.pages[r.PathValue("repo")] {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Pages already enabled"})
			return
		}
		f.pages[r.PathValue("repo")] = true
		writeJSON(w, http.StatusCreated, map[string]any{"url": "pages"})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// fakeCompletions answers chat completion requests. Prompts mentioning
// "broken" get a 500; prompts mentioning "leak" get a page containing leak.
type fakeCompletions struct {
	leak string
}

func (f *fakeCompletions) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt := ""
		for _, m := range body.Messages {
			prompt += m.Content
		}

		if strings.Contains(prompt, "broken") {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "model unavailable"})
			return
		}

		page := "<html><head><title>Generated</title></head><body><h1>Hello</h1></body></html>"
		if strings.Contains(prompt, "leak") {
			page = "<html><head></head><body>" + f.leak + "</body></html>"
		}
		files := build.NewFileMap(
			"index.html", page,
			"style.css", "body { margin: 0; }",
		)
		raw, _ := json.Marshal(files)
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": "```json\n" + string(raw) + "\n```"}}},
		})
	})
}

// evalReceiver records evaluation callbacks.
type evalReceiver struct {
	mu       sync.Mutex
	payloads []build.EvaluationPayload
}

func (e *evalReceiver) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p build.EvaluationPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		e.mu.Lock()
		e.payloads = append(e.payloads, p)
		e.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (e *evalReceiver) forNonce(nonce string) []build.EvaluationPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []build.EvaluationPayload
	for _, p := range e.payloads {
		if p.Nonce == nonce {
			out = append(out, p)
		}
	}
	return out
}
