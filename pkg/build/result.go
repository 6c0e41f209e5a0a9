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

package build

// UnknownCommit is reported when no file write returned a commit SHA.
const UnknownCommit = "unknown"

// PublishResult describes where a file map ended up. All fields are empty
// when the remote repository could not be created.
type PublishResult struct {
	RepoURL   string `json:"repo_url"`
	PagesURL  string `json:"pages_url"`
	CommitSHA string `json:"commit_sha"`
}

// Published reports whether the remote repository exists.
func (r PublishResult) Published() bool {
	return r.RepoURL != ""
}

// EvaluationPayload is posted to the caller's evaluation URL. It echoes the
// identifying fields of the original request.
type EvaluationPayload struct {
	Email     string  `json:"email"`
	Task      string  `json:"task"`
	Round     int     `json:"round"`
	Nonce     string  `json:"nonce"`
	RepoURL   *string `json:"repo_url"`
	CommitSHA *string `json:"commit_sha"`
	PagesURL  *string `json:"pages_url"`
}

// NewEvaluationPayload derives the callback payload for req from result.
func NewEvaluationPayload(req *Request, result PublishResult) EvaluationPayload {
	return EvaluationPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   Nullable(result.RepoURL),
		CommitSHA: Nullable(result.CommitSHA),
		PagesURL:  Nullable(result.PagesURL),
	}
}

// Nullable returns nil for the empty string so it encodes as JSON null.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
