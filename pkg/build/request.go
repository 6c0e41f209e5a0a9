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

// Package build holds the data model shared by the pagesmith components:
// the inbound build request, the generated file map, the publish result
// and the evaluation payload reported back to the caller.
package build

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrMissingTask  = errors.New("task is required")
	ErrMissingBrief = errors.New("brief is required")
	ErrInvalidRound = errors.New("round must be >= 1")
)

// Attachment is a named payload supplied with a request. URL is either a
// data URI carrying the bytes inline or a fetchable http(s) URL.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsDataURI reports whether the attachment carries its bytes inline.
func (a Attachment) IsDataURI() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.URL)), "data:")
}

// Request is a validated build request. It is constructed once per inbound
// call and never mutated afterwards.
type Request struct {
	Email         string
	Secret        string
	Task          string
	Round         int
	Nonce         string
	Brief         string
	Attachments   []Attachment
	Checks        []string
	EvaluationURL string
}

// Validate checks field-level invariants. The secret is not checked here;
// authorization happens before validation.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Task) == "" {
		return ErrMissingTask
	}
	if RepoName(r.Task) == "" {
		return fmt.Errorf("task %q does not contain any usable characters", r.Task)
	}
	if strings.TrimSpace(r.Brief) == "" {
		return ErrMissingBrief
	}
	if r.Round < 1 {
		return ErrInvalidRound
	}

	seen := make(map[string]bool, len(r.Attachments))
	for i, a := range r.Attachments {
		if a.Name == "" {
			return fmt.Errorf("attachments[%d].name is required", i)
		}
		if strings.ContainsAny(a.Name, `/\`) || a.Name == "." || a.Name == ".." {
			return fmt.Errorf("attachments[%d].name %q must be a plain file name", i, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("attachments[%d].name %q is duplicated", i, a.Name)
		}
		seen[a.Name] = true
		if a.URL == "" {
			return fmt.Errorf("attachments[%d].url is required", i)
		}
	}

	if r.EvaluationURL != "" {
		u, err := url.Parse(r.EvaluationURL)
		if err != nil {
			return fmt.Errorf("invalid evaluation_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid evaluation_url scheme %q: must be http or https", u.Scheme)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("invalid evaluation_url: hostname is empty")
		}
	}
	return nil
}
