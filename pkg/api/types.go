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
	"github.com/NissesSenap/pagesmith/pkg/build"
)

// Response statuses for POST /task.
const (
	StatusAccepted = "accepted"
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusAborted  = "aborted"
)

// WebSocket message types.
const (
	MessageJobEvent    = "job_event"
	MessageJobComplete = "job_complete"
)

// AttachmentRequest is one entry of TaskRequest.Attachments.
type AttachmentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskRequest is the JSON body for POST /task.
type TaskRequest struct {
	Email         string              `json:"email"`
	Secret        string              `json:"secret"`
	Task          string              `json:"task"`
	Round         int                 `json:"round"`
	Nonce         string              `json:"nonce"`
	Brief         string              `json:"brief"`
	Checks        []string            `json:"checks,omitempty"`
	Attachments   []AttachmentRequest `json:"attachments,omitempty"`
	EvaluationURL string              `json:"evaluation_url,omitempty"`
}

// ToBuild converts the wire request to the domain request. A missing round
// means the first one.
func (r TaskRequest) ToBuild() build.Request {
	if r.Round == 0 {
		r.Round = 1
	}
	req := build.Request{
		Email:         r.Email,
		Secret:        r.Secret,
		Task:          r.Task,
		Round:         r.Round,
		Nonce:         r.Nonce,
		Brief:         r.Brief,
		Checks:        r.Checks,
		EvaluationURL: r.EvaluationURL,
	}
	for _, a := range r.Attachments {
		req.Attachments = append(req.Attachments, build.Attachment{Name: a.Name, URL: a.URL})
	}
	return req
}

// TaskResponse is the JSON response for POST /task.
type TaskResponse struct {
	Status    string  `json:"status"`
	Email     string  `json:"email"`
	Task      string  `json:"task"`
	Round     int     `json:"round"`
	Nonce     string  `json:"nonce"`
	RepoURL   *string `json:"repo_url"`
	PagesURL  *string `json:"pages_url"`
	CommitSHA *string `json:"commit_sha"`
	JobID     string  `json:"job_id"`
}

// MessageResponse is the JSON response for GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// JobEvent is one state change streamed to WebSocket clients.
type JobEvent struct {
	Sequence  int64  `json:"sequence"`
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	Message   string `json:"message,omitempty"`
}

// JobCompleteData is sent once a job stops.
type JobCompleteData struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// WSMessage is the envelope for WebSocket frames.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
