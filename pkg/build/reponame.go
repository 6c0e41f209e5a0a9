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

import "strings"

const maxRepoNameLen = 100

// RepoName turns a task identifier into a repository name. Characters
// outside [A-Za-z0-9._-] collapse into a single '-', leading and trailing
// separators are trimmed. Requests with the same task always map to the
// same repository.
func RepoName(task string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(task) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash {
				b.WriteRune(r)
			}
			lastDash = true
		default:
			if !lastDash {
				b.WriteByte('-')
			}
			lastDash = true
		}
	}
	name := strings.Trim(b.String(), "-.")
	if len(name) > maxRepoNameLen {
		name = strings.TrimRight(name[:maxRepoNameLen], "-.")
	}
	return name
}
