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

// Package pipeline runs a build request through generation, publishing
// and notification, and schedules requests on a bounded worker pool.
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
	ErrSecretLeak  = errors.New("generated files contain secret-like content")
)

// Outcome is the final result of a job.
type Outcome struct {
	JobID    string
	State    build.State
	Result   build.PublishResult
	Notified bool
	Err      error
}

// Job is one build request moving through the workflow. After Enqueue the
// job belongs to the worker that picks it up; other goroutines only read
// ID and wait on Done.
type Job struct {
	ID         string
	Request    build.Request
	State      build.State
	ReceivedAt time.Time

	done chan Outcome
}

// NewJob creates a job in the Received state.
func NewJob(req build.Request) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Request:    req,
		State:      build.StateReceived,
		ReceivedAt: time.Now(),
		done:       make(chan Outcome, 1),
	}
}

// Done delivers the outcome once the job stops.
func (j *Job) Done() <-chan Outcome {
	return j.done
}

func (j *Job) finish(o Outcome) {
	select {
	case j.done <- o:
	default:
	}
}

// Event describes a state change of a job.
type Event struct {
	JobID   string
	State   build.State
	Message string
	Time    time.Time
	// Final is set on the last event of a job.
	Final bool
}

// Observer receives job events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
