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

// Package attachment turns the attachments of a build request into local
// files: inline data URIs are decoded, anything else is downloaded.
package attachment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

const (
	defaultTimeout = 30 * time.Second
	defaultMaxSize = 10 << 20 // 10 MiB
)

// File is an attachment written to the working directory.
type File struct {
	Name      string
	Path      string
	MediaType string
	Size      int64
}

// IsText reports whether the file content is plain enough to be quoted
// into a prompt.
func (f File) IsText() bool {
	if strings.HasPrefix(f.MediaType, "text/") {
		return true
	}
	switch f.MediaType {
	case "application/json", "application/xml", "application/javascript", "application/x-ndjson":
		return true
	}
	return false
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithHTTPClient sets the client used for remote attachments.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Materializer) { m.httpClient = c }
}

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Materializer) { m.httpClient.Timeout = d }
}

// WithMaxSize caps the size of a single attachment.
func WithMaxSize(n int64) Option {
	return func(m *Materializer) { m.maxSize = n }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(m *Materializer) { m.logger = l }
}

// Materializer decodes or downloads attachments into a directory.
type Materializer struct {
	httpClient *http.Client
	maxSize    int64
	logger     logr.Logger
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts ...Option) *Materializer {
	m := &Materializer{
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxSize:    defaultMaxSize,
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize writes one file per attachment into dir. Attachments are
// independent: a failing attachment is skipped and reported in the joined
// error while the others are still written and returned.
func (m *Materializer) Materialize(ctx context.Context, attachments []build.Attachment, dir string) ([]File, error) {
	var (
		files []File
		errs  []error
	)
	for _, a := range attachments {
		f, err := m.materializeOne(ctx, a, dir)
		if err != nil {
			m.logger.Info("skipping attachment", "name", a.Name, "error", err.Error())
			errs = append(errs, err)
			continue
		}
		m.logger.V(1).Info("wrote attachment", "name", f.Name, "path", f.Path, "bytes", f.Size)
		files = append(files, f)
	}
	return files, errors.Join(errs...)
}

func (m *Materializer) materializeOne(ctx context.Context, a build.Attachment, dir string) (File, error) {
	var (
		data      []byte
		mediaType string
		err       error
	)
	if a.IsDataURI() {
		mediaType, data, err = decodeDataURI(a.URL)
		if err != nil {
			return File{}, &DecodeError{Name: a.Name, Err: err}
		}
	} else {
		mediaType, data, err = m.fetch(ctx, a)
		if err != nil {
			return File{}, err
		}
	}
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(a.Name))
	}

	path := filepath.Join(dir, filepath.Base(a.Name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return File{}, fmt.Errorf("writing attachment %q: %w", a.Name, err)
	}
	return File{Name: a.Name, Path: path, MediaType: baseMediaType(mediaType), Size: int64(len(data))}, nil
}

func (m *Materializer) fetch(ctx context.Context, a build.Attachment) (string, []byte, error) {
	u, err := url.Parse(a.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, Err: fmt.Errorf("unsupported URL")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, Err: err}
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxSize+1))
	if err != nil {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, Err: err}
	}
	if int64(len(data)) > m.maxSize {
		return "", nil, &FetchError{Name: a.Name, URL: a.URL, Err: fmt.Errorf("exceeds %d byte limit", m.maxSize)}
	}
	return resp.Header.Get("Content-Type"), data, nil
}

// decodeDataURI parses data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) (string, []byte, error) {
	uri = strings.TrimSpace(uri)
	if len(uri) < 5 || !strings.EqualFold(uri[:5], "data:") {
		return "", nil, errors.New("not a data URI")
	}
	rest := uri[5:]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, errors.New("missing ',' separator")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		isBase64 = true
		meta = meta[:len(meta)-len(";base64")]
	}

	mediaType := "text/plain"
	if meta != "" {
		mt, _, err := mime.ParseMediaType(meta)
		if err != nil {
			return "", nil, fmt.Errorf("media type: %w", err)
		}
		mediaType = mt
	}

	if !isBase64 {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("percent-decoding: %w", err)
		}
		return mediaType, []byte(data), nil
	}

	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	if unescaped, err := url.PathUnescape(payload); err == nil {
		payload = unescaped
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, rawErr := base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return "", nil, fmt.Errorf("base64: %w", err)
		}
		data = raw
	}
	return mediaType, data, nil
}

func baseMediaType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}
