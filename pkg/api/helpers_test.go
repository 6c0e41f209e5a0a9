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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/NissesSenap/pagesmith/pkg/adapters/github"
	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/generate"
	"github.com/NissesSenap/pagesmith/pkg/pipeline"
)

const testSecret = "s"

type countingGenerator struct {
	calls atomic.Int32
}

func (g *countingGenerator) Generate(_ context.Context, _ generate.Brief) (build.FileMap, error) {
	g.calls.Add(1)
	return build.NewFileMap("index.html", "<html><head></head><body>hi</body></html>"), nil
}

// recordingPublisher predicts like the GitHub publisher and counts calls.
type recordingPublisher struct {
	predictor *github.Publisher
	err       error
	calls     atomic.Int32
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{predictor: github.NewPublisher(nil, "octo")}
}

func (p *recordingPublisher) Publish(_ context.Context, repo string, _ build.FileMap, _ ...github.PublishOption) (build.PublishResult, error) {
	p.calls.Add(1)
	if p.err != nil {
		return build.PublishResult{}, p.err
	}
	res := p.predictor.Predict(repo)
	res.CommitSHA = "abc123"
	return res, nil
}

func (p *recordingPublisher) Predict(repo string) build.PublishResult {
	return p.predictor.Predict(repo)
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) Notify(_ context.Context, _ build.EvaluationPayload, _ string) bool {
	n.calls.Add(1)
	return true
}

// fakeQueue records jobs and optionally processes them inline.
type fakeQueue struct {
	mu       sync.Mutex
	jobs     []*pipeline.Job
	err      error
	notReady bool
	process  func(*pipeline.Job)
}

func (q *fakeQueue) Enqueue(job *pipeline.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	if q.process != nil {
		go q.process(job)
	}
	return nil
}

func (q *fakeQueue) Ready() bool { return !q.notReady }

func (q *fakeQueue) enqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type testEnv struct {
	gen      *countingGenerator
	pub      *recordingPublisher
	notifier *countingNotifier
	events   *EventHub
	pipeline *pipeline.Pipeline
	queue    *fakeQueue
}

func newTestEnv() *testEnv {
	env := &testEnv{
		gen:      &countingGenerator{},
		pub:      newRecordingPublisher(),
		notifier: &countingNotifier{},
		events:   NewEventHub(0),
	}
	env.pipeline = pipeline.New(env.gen, env.pub, env.notifier, pipeline.WithObserver(env.events))
	env.queue = &fakeQueue{}
	return env
}

// processInline makes the queue run jobs through the pipeline.
func (e *testEnv) processInline() {
	e.queue.process = func(job *pipeline.Job) {
		e.pipeline.Process(context.Background(), job)
	}
}

func (e *testEnv) server(t *testing.T, mode string) *Server {
	t.Helper()
	s, err := NewServer(Options{
		Secret:             testSecret,
		Mode:               mode,
		RateLimitPerMinute: -1,
		Pipeline:           e.pipeline,
		Queue:              e.queue,
		Events:             e.events,
	})
	require.NoError(t, err)
	return s
}

func testRouter(h *taskHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/task", h.submitTask)
	r.Post("/api-endpoint", h.submitTask)
	return r
}

func validTaskRequest() TaskRequest {
	return TaskRequest{
		Email:         "student@example.com",
		Secret:        testSecret,
		Task:          "demo",
		Round:         1,
		Nonce:         "n-1",
		Brief:         "Build a page that says hello",
		Checks:        []string{"Page has a heading"},
		EvaluationURL: "https://eval.example.com/notify",
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func contractRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Content-Type", "application/json")
	return req
}

var (
	apiOnce   sync.Once
	apiDoc    *openapi3.T
	apiRouter routers.Router
	apiErr    error
)

// loadAPI parses api/openapi.yaml, the published contract of the pagesmith
// HTTP surface, and builds its route matcher once per test binary.
func loadAPI(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()
	apiOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		path := filepath.Join(filepath.Dir(filename), "..", "..", "api", "openapi.yaml")
		apiDoc, apiErr = openapi3.NewLoader().LoadFromFile(path)
		if apiErr != nil {
			return
		}
		if apiErr = apiDoc.Validate(context.Background()); apiErr != nil {
			return
		}
		apiRouter, apiErr = gorillamux.NewRouter(apiDoc)
	})
	require.NoError(t, apiErr, "api/openapi.yaml must load")
	return apiDoc, apiRouter
}

// assertMatchesAPI fails t when the recorded response is not one that
// api/openapi.yaml allows for req.
func assertMatchesAPI(t *testing.T, req *http.Request, rec *httptest.ResponseRecorder) {
	t.Helper()
	_, router := loadAPI(t)

	route, params, err := router.FindRoute(req)
	require.NoError(t, err, "%s %s is not documented", req.Method, req.URL.Path)

	err = openapi3filter.ValidateResponse(context.Background(), &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: params,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
		Body:   io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
	})
	require.NoError(t, err, "%s %s answered %d outside the documented contract", req.Method, req.URL.Path, rec.Code)
}
