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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// EntryPoint is the file served at the root of the hosting URL.
const EntryPoint = "index.html"

// FileMap is an ordered mapping from relative path to file content.
// The zero value is an empty map ready to use.
type FileMap struct {
	paths   []string
	content map[string]string
}

// NewFileMap builds a FileMap from alternating path/content pairs.
func NewFileMap(pairs ...string) FileMap {
	var m FileMap
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set stores content under path. Re-setting an existing path keeps its
// original position.
func (m *FileMap) Set(path, content string) {
	if m.content == nil {
		m.content = make(map[string]string)
	}
	if _, ok := m.content[path]; !ok {
		m.paths = append(m.paths, path)
	}
	m.content[path] = content
}

// Get returns the content stored under path.
func (m FileMap) Get(path string) (string, bool) {
	c, ok := m.content[path]
	return c, ok
}

// Has reports whether path is present.
func (m FileMap) Has(path string) bool {
	_, ok := m.content[path]
	return ok
}

// Paths returns the paths in insertion order.
func (m FileMap) Paths() []string {
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Len returns the number of entries.
func (m FileMap) Len() int {
	return len(m.paths)
}

// Clone returns a deep copy.
func (m FileMap) Clone() FileMap {
	var out FileMap
	for _, p := range m.paths {
		out.Set(p, m.content[p])
	}
	return out
}

// Validate checks that the map can be published: at least one entry, an
// HTML entry point, and only relative paths that stay inside the target
// directory.
func (m FileMap) Validate() error {
	if len(m.paths) == 0 {
		return errors.New("file map is empty")
	}
	hasEntry := false
	for _, p := range m.paths {
		if err := validPath(p); err != nil {
			return err
		}
		if p == EntryPoint || strings.HasSuffix(strings.ToLower(p), ".html") {
			hasEntry = true
		}
	}
	if !hasEntry {
		return errors.New("file map has no HTML entry point")
	}
	return nil
}

func validPath(p string) error {
	if strings.Contains(p, `\`) || !fs.ValidPath(p) || p == "." {
		return fmt.Errorf("invalid file path %q", p)
	}
	return nil
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m FileMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.content[p])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object whose values are all strings,
// keeping the key order of the document.
func (m *FileMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("file map must be a JSON object")
	}

	var out FileMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
