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

// Package notify delivers publish results to the evaluation callback URL.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Pagesmith-Signature"

const (
	DefaultMaxAttempts = 5
	DefaultUnit        = time.Second
	DefaultTimeout     = 10 * time.Second
)

// Option configures a Notifier.
type Option func(*Notifier)

// WithMaxAttempts bounds the number of POSTs. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(nt *Notifier) {
		if n >= 1 {
			nt.maxAttempts = n
		}
	}
}

// WithBackoffUnit sets the first retry delay. Later delays double.
func WithBackoffUnit(d time.Duration) Option {
	return func(nt *Notifier) {
		if d > 0 {
			nt.unit = d
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(nt *Notifier) { nt.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client. Its timeout is used per attempt.
func WithHTTPClient(c *http.Client) Option {
	return func(nt *Notifier) { nt.httpClient = c }
}

// WithSecret signs every body with secret.
func WithSecret(secret string) Option {
	return func(nt *Notifier) { nt.secret = secret }
}

func WithLogger(l logr.Logger) Option {
	return func(nt *Notifier) { nt.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(nt *Notifier) { nt.metrics = m }
}

// Notifier POSTs evaluation payloads, retrying with exponential backoff.
type Notifier struct {
	maxAttempts int
	unit        time.Duration
	secret      string
	httpClient  *http.Client
	logger      logr.Logger
	metrics     *metrics.Metrics
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		maxAttempts: DefaultMaxAttempts,
		unit:        DefaultUnit,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logr.Discard(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify POSTs payload to url until a 200 arrives, the attempt budget is
// spent or ctx is done. Delays between attempts are unit, 2*unit, 4*unit
// and so on. It reports whether a 200 was received.
func (n *Notifier) Notify(ctx context.Context, payload build.EvaluationPayload, url string) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error(err, "marshaling evaluation payload")
		return false
	}
	log := n.logger.WithValues("url", url, "task", payload.Task, "round", payload.Round)

	attempt := 0
	op := func() error {
		attempt++
		err := n.post(ctx, url, body)
		n.metrics.NotifyAttempt(err == nil)
		if err != nil {
			log.V(1).Info("notification attempt failed", "attempt", attempt, "error", err.Error())
		}
		return err
	}

	err = backoff.RetryNotify(op, n.schedule(ctx), func(_ error, next time.Duration) {
		log.V(1).Info("retrying notification", "in", next.String())
	})
	if err != nil {
		log.Error(err, "evaluation notification failed", "attempts", attempt)
		return false
	}
	log.Info("evaluation notified", "attempts", attempt)
	return true
}

func (n *Notifier) schedule(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(n.unit),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(n.unit<<uint(n.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(n.maxAttempts-1)), ctx)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating notification request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
