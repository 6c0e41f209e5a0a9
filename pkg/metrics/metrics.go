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

// Package metrics holds the Prometheus collectors shared by the pagesmith
// components. Each server owns a private registry so tests can build as
// many servers as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics is a set of collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	jobs        *prometheus.CounterVec
	publishFile *prometheus.CounterVec
	notify      *prometheus.CounterVec
	fallbacks   prometheus.Counter
	queueDepth  prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesmith_jobs_total",
			Help: "Number of job state transitions, by the state entered.",
		}, []string{"state"}),
		publishFile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesmith_publish_files_total",
			Help: "Number of file writes to the hosting service, by result.",
		}, []string{"result"}),
		notify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesmith_notify_attempts_total",
			Help: "Number of evaluation callback attempts, by result.",
		}, []string{"result"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagesmith_generation_fallbacks_total",
			Help: "Number of times content generation fell back to the template.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagesmith_queue_depth",
			Help: "Number of jobs waiting for a worker.",
		}),
	}
	m.registry.MustRegister(
		m.jobs, m.publishFile, m.notify, m.fallbacks, m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) JobState(state string) {
	if m != nil {
		m.jobs.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) PublishFile(ok bool) {
	if m != nil {
		m.publishFile.WithLabelValues(result(ok)).Inc()
	}
}

func (m *Metrics) NotifyAttempt(ok bool) {
	if m != nil {
		m.notify.WithLabelValues(result(ok)).Inc()
	}
}

func (m *Metrics) GenerationFallback() {
	if m != nil {
		m.fallbacks.Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
