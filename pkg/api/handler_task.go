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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/build"
	"github.com/NissesSenap/pagesmith/pkg/pipeline"
)

// maxTaskBodyBytes bounds POST /task bodies, data URI attachments included.
const maxTaskBodyBytes = 10 << 20

// Response modes for POST /task.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
)

// TaskPipeline is the part of the pipeline the handler drives directly.
type TaskPipeline interface {
	Authorize(job *pipeline.Job) error
	Reject(job *pipeline.Job) error
	Predict(req build.Request) build.PublishResult
}

// TaskQueue accepts authorized jobs.
type TaskQueue interface {
	Enqueue(job *pipeline.Job) error
	Ready() bool
}

type taskHandler struct {
	pipeline TaskPipeline
	queue    TaskQueue
	verifier *SecretVerifier
	mode     string
	logger   logr.Logger
}

// submitTask handles POST /task and POST /api-endpoint.
func (h *taskHandler) submitTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTaskBodyBytes)

	var body TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	job := pipeline.NewJob(body.ToBuild())
	log := h.logger.WithValues("job", job.ID, "task", body.Task, "round", job.Request.Round)

	if !h.verifier.Verify(body.Secret) {
		_ = h.pipeline.Reject(job)
		log.Info("rejected task with invalid secret")
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Invalid secret"})
		return
	}

	if err := job.Request.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := h.pipeline.Authorize(job); err != nil {
		log.Error(err, "authorizing job")
		writeError(w, http.StatusInternalServerError, "failed to start job", "")
		return
	}

	predicted := h.pipeline.Predict(job.Request)
	if err := h.queue.Enqueue(job); err != nil {
		log.Info("job not accepted", "reason", err.Error())
		writeError(w, http.StatusServiceUnavailable, "service busy, retry later", err.Error())
		return
	}
	log.Info("task accepted", "email", body.Email)

	resp := TaskResponse{
		Status:   StatusAccepted,
		Email:    body.Email,
		Task:     body.Task,
		Round:    job.Request.Round,
		Nonce:    body.Nonce,
		RepoURL:  build.Nullable(predicted.RepoURL),
		PagesURL: build.Nullable(predicted.PagesURL),
		JobID:    job.ID,
	}

	if h.mode == ModeSync {
		select {
		case out := <-job.Done():
			applyOutcome(&resp, out)
		case <-r.Context().Done():
			log.Info("client went away before the job finished")
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func applyOutcome(resp *TaskResponse, out pipeline.Outcome) {
	resp.RepoURL = build.Nullable(out.Result.RepoURL)
	resp.PagesURL = build.Nullable(out.Result.PagesURL)
	resp.CommitSHA = build.Nullable(out.Result.CommitSHA)
	// A failed publish still ends in Done and reports null URLs.
	switch out.State {
	case build.StateDone:
		resp.Status = StatusOK
	case build.StateAborted:
		resp.Status = StatusAborted
	default:
		resp.Status = StatusFailed
	}
}
