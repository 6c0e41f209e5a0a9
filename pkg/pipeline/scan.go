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

package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

// minSecretLength keeps short configured secrets from matching ordinary
// text.
const minSecretLength = 8

var tokenPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"github-token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"github-pat", regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{22,}\b`)},
	{"openai-key", regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}`)},
	{"google-api-key", regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )?PRIVATE KEY-----`)},
}

// Finding is one secret-like match.
type Finding struct {
	Path string
	Kind string
}

// Scanner looks for credentials in generated files.
type Scanner struct {
	secrets []string
}

// NewScanner creates a Scanner that also looks for the given literal
// secrets. Empty and short values are ignored.
func NewScanner(secrets ...string) *Scanner {
	s := &Scanner{}
	for _, v := range secrets {
		if len(v) >= minSecretLength {
			s.secrets = append(s.secrets, v)
		}
	}
	return s
}

// Scan returns the findings in path order.
func (s *Scanner) Scan(files build.FileMap) []Finding {
	var out []Finding
	for _, path := range files.Paths() {
		content, _ := files.Get(path)
		kinds := map[string]bool{}
		for _, secret := range s.secrets {
			if strings.Contains(content, secret) {
				kinds["configured-secret"] = true
			}
		}
		for _, p := range tokenPatterns {
			if p.re.MatchString(content) {
				kinds[p.kind] = true
			}
		}
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			out = append(out, Finding{Path: path, Kind: k})
		}
	}
	return out
}
