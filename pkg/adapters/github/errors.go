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

package github

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when neither a token nor App credentials
// are configured.
var ErrNoCredentials = errors.New("no GitHub credentials configured")

// PublishError reports a publish step that failed as a whole.
type PublishError struct {
	Repo string
	Op   string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %s: %v", e.Repo, e.Op, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
