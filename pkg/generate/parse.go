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

package generate

import (
	"encoding/json"
	"strings"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

// ParseFileMap extracts a filename to content object from a model reply.
// Markdown code fences are removed and the outermost balanced {...} is
// decoded. When no usable object is found the raw reply, unchanged, becomes
// the sole index.html entry.
func ParseFileMap(raw string) build.FileMap {
	if obj, ok := outermostObject(stripFences(raw)); ok {
		var files build.FileMap
		if err := json.Unmarshal([]byte(obj), &files); err == nil && files.Len() > 0 {
			return files
		}
	}
	return build.NewFileMap(build.EntryPoint, raw)
}

// stripFences returns the body of the first fenced block, or s when it
// holds no fence.
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	// Drop the info string (```json).
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return s
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return body
}

// outermostObject returns the substring from the first '{' to its matching
// '}'. Braces inside JSON strings are ignored.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
