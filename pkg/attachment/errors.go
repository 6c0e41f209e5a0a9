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

package attachment

import "fmt"

// DecodeError reports a malformed inline data URI.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding attachment %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError reports a remote attachment that could not be downloaded.
// StatusCode is zero for transport failures.
type FetchError struct {
	Name       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching attachment %q from %s: status %d", e.Name, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching attachment %q from %s: %v", e.Name, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
