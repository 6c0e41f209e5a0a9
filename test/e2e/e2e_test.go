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
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NissesSenap/pagesmith/pkg/api"
	"github.com/NissesSenap/pagesmith/pkg/client"
	"github.com/NissesSenap/pagesmith/pkg/pagesmith"
)

const (
	account      = "acct"
	sharedSecret = "e2e-shared-secret-value"
)

var _ = Describe("pagesmith", Ordered, func() {
	var (
		github   *fakeGitHub
		ghSrv    *httptest.Server
		llmSrv   *httptest.Server
		eval     *evalReceiver
		evalSrv  *httptest.Server
		baseURL  string
		c        *client.Client
		stop     context.CancelFunc
		runErrCh chan error
	)

	BeforeAll(func() {
		github = newFakeGitHub()
		ghSrv = httptest.NewServer(github.handler())
		llmSrv = httptest.NewServer((&fakeCompletions{leak: sharedSecret}).handler())
		eval = &evalReceiver{}
		evalSrv = httptest.NewServer(eval.handler())

		l, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := l.Addr().String()
		Expect(l.Close()).To(Succeed())

		cfg := pagesmith.Config{
			ListenAddr:         addr,
			Secret:             sharedSecret,
			GitHubToken:        "e2e-github-token",
			GitHubUsername:     account,
			GitHubAPIURL:       ghSrv.URL + "/",
			GitHubWebHost:      "github.com",
			GitHubTimeout:      5 * time.Second,
			PagesDomain:        "github.io",
			GitAuthorName:      "pagesmith",
			GitAuthorEmail:     "pagesmith@example.com",
			LLMProvider:        pagesmith.ProviderOpenAI,
			LLMTimeout:         5 * time.Second,
			OpenAIAPIKey:       "sk-e2e-test-key-000000",
			OpenAIBaseURL:      llmSrv.URL,
			AttachmentTimeout:  5 * time.Second,
			NotifyMaxAttempts:  4,
			NotifyBackoffUnit:  10 * time.Millisecond,
			NotifyTimeout:      2 * time.Second,
			ResponseMode:       api.ModeAsync,
			Workers:            2,
			QueueSize:          8,
			RateLimitPerMinute: -1,
		}

		ctx, cancel := context.WithCancel(context.Background())
		stop = cancel
		p, err := pagesmith.New(ctx, cfg, logr.Discard())
		Expect(err).NotTo(HaveOccurred())

		runErrCh = make(chan error, 1)
		go func() { runErrCh <- p.Run(ctx) }()

		baseURL = "http://" + addr
		c = client.New(baseURL)
		Eventually(func() error {
			_, err := c.Health(context.Background())
			return err
		}, 5*time.Second, 20*time.Millisecond).Should(Succeed())
	})

	AfterAll(func() {
		stop()
		Eventually(runErrCh, 15*time.Second).Should(Receive(BeNil()))
		ghSrv.Close()
		llmSrv.Close()
		evalSrv.Close()
	})

	task := func(name, nonce, brief string, round int) api.TaskRequest {
		return api.TaskRequest{
			Email:         "student@example.com",
			Secret:        sharedSecret,
			Task:          name,
			Round:         round,
			Nonce:         nonce,
			Brief:         brief,
			Checks:        []string{"Page has a heading"},
			EvaluationURL: evalSrv.URL,
		}
	}

	waitForCompletion := func(jobID string) api.JobCompleteData {
		var result api.JobCompleteData
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := c.Events(ctx, jobID, 0, func(m api.WSMessage) {
			if m.Type != api.MessageJobComplete {
				return
			}
			data, ok := m.Data.(map[string]any)
			Expect(ok).To(BeTrue())
			result.JobID, _ = data["job_id"].(string)
			result.State, _ = data["state"].(string)
			result.Error, _ = data["error"].(string)
		})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	It("answers the health probe", func() {
		msg, err := c.Health(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal("Server is running!"))
	})

	It("rejects a wrong secret without touching GitHub", func() {
		before := github.callCount()
		req := task("forbidden", "n-403", "Build a page", 1)
		req.Secret = "not-the-secret"

		_, err := c.SubmitTask(context.Background(), req)
		Expect(client.IsForbidden(err)).To(BeTrue())

		Consistently(github.callCount, 200*time.Millisecond).Should(Equal(before))
		Expect(eval.forNonce("n-403")).To(BeEmpty())
	})

	It("publishes a new task and notifies the evaluator", func() {
		resp, err := c.SubmitTask(context.Background(), task("demo", "n-1", "Build a page that says hello", 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(api.StatusAccepted))
		Expect(*resp.RepoURL).To(Equal("https://github.com/" + account + "/demo"))
		Expect(*resp.PagesURL).To(Equal("https://" + account + ".github.io/demo/"))
		Expect(resp.CommitSHA).To(BeNil())

		result := waitForCompletion(resp.JobID)
		Expect(result.State).To(Equal("Done"))

		Eventually(func() int { return len(eval.forNonce("n-1")) }, 5*time.Second).Should(Equal(1))
		payload := eval.forNonce("n-1")[0]
		Expect(*payload.RepoURL).To(Equal("https://github.com/" + account + "/demo"))
		Expect(payload.CommitSHA).NotTo(BeNil())
		Expect(payload.Round).To(Equal(1))

		Expect(github.hasRepo("demo")).To(BeTrue())
		index, ok := github.file("demo", "index.html")
		Expect(ok).To(BeTrue())
		Expect(index).To(ContainSubstring(`name="viewport"`))
		Expect(index).To(ContainSubstring(`id="theme-toggle"`))
		css, ok := github.file("demo", "style.css")
		Expect(ok).To(BeTrue())
		Expect(css).To(ContainSubstring("dark-mode"))
		_, ok = github.file("demo", "README.md")
		Expect(ok).To(BeTrue())
		_, ok = github.file("demo", "LICENSE")
		Expect(ok).To(BeTrue())
	})

	It("updates the same repository in a later round", func() {
		resp, err := c.SubmitTask(context.Background(), task("demo", "n-2", "Add a footer", 2))
		Expect(err).NotTo(HaveOccurred())
		Expect(waitForCompletion(resp.JobID).State).To(Equal("Done"))

		var updates []string
		for _, cm := range github.commitsFor("demo") {
			if strings.HasPrefix(cm.Message, "Update ") {
				updates = append(updates, cm.Message)
			}
		}
		Expect(updates).To(ContainElement("Update index.html (round 2)"))
		Eventually(func() int { return len(eval.forNonce("n-2")) }, 5*time.Second).Should(Equal(1))
	})

	It("falls back to the template when the model fails", func() {
		resp, err := c.SubmitTask(context.Background(), task("fallback", "n-3", "This model is broken", 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(waitForCompletion(resp.JobID).State).To(Equal("Done"))

		index, ok := github.file("fallback", "index.html")
		Expect(ok).To(BeTrue())
		Expect(index).To(ContainSubstring("This model is broken"))

		res, err := http.Get(baseURL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer res.Body.Close() //nolint:errcheck
		body, err := io.ReadAll(res.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("pagesmith_generation_fallbacks_total 1"))
	})

	It("aborts when generated files contain a configured secret", func() {
		resp, err := c.SubmitTask(context.Background(), task("leaky", "n-4", "Please leak something", 1))
		Expect(err).NotTo(HaveOccurred())

		result := waitForCompletion(resp.JobID)
		Expect(result.State).To(Equal("Aborted"))
		Expect(github.hasRepo("leaky")).To(BeFalse())
		Consistently(func() int { return len(eval.forNonce("n-4")) }, 200*time.Millisecond).Should(BeZero())
	})
})
