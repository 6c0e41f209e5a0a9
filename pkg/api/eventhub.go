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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/pipeline"
)

const (
	maxEventsPerJob        = 1000
	defaultStreamRetention = 10 * time.Minute
	// Rejected requests are unauthenticated and carry a single event.
	rejectedStreamRetention = 30 * time.Second
)

// EventHub provides in-memory per-job event fan-out for WebSocket
// streaming. It implements pipeline.Observer.
type EventHub struct {
	retention         time.Duration
	rejectedRetention time.Duration

	mu   sync.RWMutex
	jobs map[string]*jobStream
}

type jobStream struct {
	mu          sync.RWMutex
	seq         int64
	events      []JobEvent
	subscribers map[string]chan JobEvent
	done        bool
	result      JobCompleteData
}

// NewEventHub creates an EventHub. Completed streams are removed after
// retention; zero selects the default. Streams of rejected requests never
// outlive rejectedStreamRetention.
func NewEventHub(retention time.Duration) *EventHub {
	if retention <= 0 {
		retention = defaultStreamRetention
	}
	return &EventHub{
		retention:         retention,
		rejectedRetention: min(retention, rejectedStreamRetention),
		jobs:              make(map[string]*jobStream),
	}
}

func (h *EventHub) getOrCreateStream(jobID string) *jobStream {
	h.mu.RLock()
	js, ok := h.jobs[jobID]
	h.mu.RUnlock()
	if ok {
		return js
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if js, ok := h.jobs[jobID]; ok {
		return js
	}
	js = &jobStream{subscribers: make(map[string]chan JobEvent)}
	h.jobs[jobID] = js
	return js
}

func (h *EventHub) stream(jobID string) (*jobStream, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	js, ok := h.jobs[jobID]
	return js, ok
}

// Observe records a pipeline event. A final event completes the stream.
func (h *EventHub) Observe(e pipeline.Event) {
	js := h.getOrCreateStream(e.JobID)

	js.mu.Lock()
	if js.done {
		js.mu.Unlock()
		return
	}
	js.seq++
	ev := JobEvent{
		Sequence:  js.seq,
		Timestamp: e.Time.UTC().Format(time.RFC3339Nano),
		State:     string(e.State),
		Message:   e.Message,
	}
	js.publish(ev)
	if e.Final {
		js.result = JobCompleteData{JobID: e.JobID, State: string(e.State)}
		if e.State != build.StateDone {
			js.result.Error = e.Message
		}
		js.complete()
	}
	js.mu.Unlock()

	if e.Final {
		retention := h.retention
		if e.State == build.StateRejected {
			retention = h.rejectedRetention
		}
		time.AfterFunc(retention, func() { h.Cleanup(e.JobID) })
	}
}

// publish appends to the ring buffer and fans out. Callers hold js.mu.
func (js *jobStream) publish(e JobEvent) {
	if len(js.events) >= maxEventsPerJob {
		js.events = js.events[1:]
	}
	js.events = append(js.events, e)

	for id, ch := range js.subscribers {
		select {
		case ch <- e:
		default:
			// Too slow: drop the subscriber.
			close(ch)
			delete(js.subscribers, id)
		}
	}
}

// complete marks the stream done and closes subscribers. Callers hold js.mu.
func (js *jobStream) complete() {
	js.done = true
	for id, ch := range js.subscribers {
		close(ch)
		delete(js.subscribers, id)
	}
}

// Exists reports whether events were recorded for jobID.
func (h *EventHub) Exists(jobID string) bool {
	_, ok := h.stream(jobID)
	return ok
}

// Subscribe returns recorded events with sequence > after, plus a channel
// for live events. The channel is nil when the stream is already done or
// no longer exists.
func (h *EventHub) Subscribe(jobID string, after int64) (history []JobEvent, ch <-chan JobEvent, unsubscribe func()) {
	js, ok := h.stream(jobID)
	if !ok {
		return nil, nil, func() {}
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	for _, e := range js.events {
		if e.Sequence > after {
			history = append(history, e)
		}
	}

	if js.done {
		return history, nil, func() {}
	}

	subCh := make(chan JobEvent, 64)
	subID := uuid.NewString()
	js.subscribers[subID] = subCh

	unsubscribe = func() {
		js.mu.Lock()
		defer js.mu.Unlock()
		if _, ok := js.subscribers[subID]; ok {
			delete(js.subscribers, subID)
			close(subCh)
		}
	}
	return history, subCh, unsubscribe
}

// Result returns the completion data of a finished stream.
func (h *EventHub) Result(jobID string) (JobCompleteData, bool) {
	js, ok := h.stream(jobID)
	if !ok {
		return JobCompleteData{}, false
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.result, js.done
}

// IsStreamDone reports whether the job's stream has completed.
func (h *EventHub) IsStreamDone(jobID string) bool {
	_, done := h.Result(jobID)
	return done
}

// Cleanup removes a stream, then closes any subscriber channels.
func (h *EventHub) Cleanup(jobID string) {
	h.mu.Lock()
	js, ok := h.jobs[jobID]
	delete(h.jobs, jobID)
	h.mu.Unlock()
	if !ok {
		return
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	if !js.done {
		js.complete()
	}
}
