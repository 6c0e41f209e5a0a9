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
	"bytes"
	"context"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

var indexTemplate = htmltemplate.Must(htmltemplate.New("index.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Task}}</title>
<link rel="stylesheet" href="style.css">
</head>
<body>
<header class="header">
<h1>{{.Task}}</h1>
<p>Round {{.Round}}</p>
</header>
<main>
<section class="card">
<h2>Brief</h2>
<p>{{.Brief}}</p>
</section>
{{- if .Checks}}
<section class="card">
<h2>Checks</h2>
<ul>
{{- range .Checks}}
<li>{{.}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- if .Attachments}}
<section class="card">
<h2>Attachments</h2>
<ul>
{{- range .Attachments}}
<li>{{.Name}} <small>{{.MediaType}}</small></li>
{{- end}}
</ul>
</section>
{{- end}}
</main>
</body>
</html>
`))

var readmeTemplate = template.Must(template.New("README.md").Parse(`# {{.Task}}

{{.Brief}}

## Round

{{.Round}}
{{- if .Checks}}

## Checks
{{range .Checks}}
- {{.}}
{{- end}}
{{- end}}

## Usage

Open ` + "`index.html`" + ` in a browser, or visit the published GitHub Pages site.

## License

MIT, see [LICENSE](LICENSE).
`))

var licenseTemplate = template.Must(template.New("LICENSE").Parse(`MIT License

Copyright (c) {{.Year}} {{.Author}}

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`))

const baseStylesheet = `* {
  box-sizing: border-box;
}
body {
  margin: 0;
  line-height: 1.6;
}
main {
  max-width: 960px;
  margin: 0 auto;
  padding: 1.5rem 1rem;
}
.card {
  padding: 1rem 1.25rem;
  margin-bottom: 1rem;
  border: 1px solid #e5e7eb;
}
`

// TemplateGenerator renders a fixed single-page app from the brief. It never
// fails for a valid brief and needs no network access.
type TemplateGenerator struct {
	author string
	now    func() time.Time
}

// TemplateOption configures a TemplateGenerator.
type TemplateOption func(*TemplateGenerator)

// WithAuthor sets the copyright holder written to LICENSE.
func WithAuthor(name string) TemplateOption {
	return func(g *TemplateGenerator) { g.author = name }
}

// WithClock overrides the clock used for the LICENSE year.
func WithClock(now func() time.Time) TemplateOption {
	return func(g *TemplateGenerator) { g.now = now }
}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator(opts ...TemplateOption) *TemplateGenerator {
	g := &TemplateGenerator{author: "pagesmith", now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate renders index.html, style.css, README.md and LICENSE.
func (g *TemplateGenerator) Generate(_ context.Context, b Brief) (build.FileMap, error) {
	index, err := render(indexTemplate.Execute, b)
	if err != nil {
		return build.FileMap{}, err
	}
	readme, err := g.Readme(b)
	if err != nil {
		return build.FileMap{}, err
	}
	license, err := g.License()
	if err != nil {
		return build.FileMap{}, err
	}
	return build.NewFileMap(
		build.EntryPoint, index,
		"style.css", baseStylesheet,
		"README.md", readme,
		"LICENSE", license,
	), nil
}

// Complete adds README.md and LICENSE to files when they are missing.
// Files the generator already produced are left untouched.
func (g *TemplateGenerator) Complete(files *build.FileMap, b Brief) error {
	if !files.Has("README.md") {
		readme, err := g.Readme(b)
		if err != nil {
			return err
		}
		files.Set("README.md", readme)
	}
	if !files.Has("LICENSE") {
		license, err := g.License()
		if err != nil {
			return err
		}
		files.Set("LICENSE", license)
	}
	return nil
}

// Readme renders README.md for the brief.
func (g *TemplateGenerator) Readme(b Brief) (string, error) {
	return render(readmeTemplate.Execute, b)
}

// License renders the MIT license text.
func (g *TemplateGenerator) License() (string, error) {
	return render(licenseTemplate.Execute, struct {
		Year   int
		Author string
	}{Year: g.now().Year(), Author: g.author})
}

func render(exec func(w io.Writer, data any) error, data any) (string, error) {
	var buf bytes.Buffer
	if err := exec(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
