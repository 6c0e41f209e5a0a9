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

// Package enhance applies the standard look and feel to a generated app:
// head metadata, the design-system stylesheet and a dark-mode toggle.
//
// Enhance is a pure text transformation. It is meant to run once per file
// map; running it twice injects the stylesheet and toggle twice.
package enhance

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/NissesSenap/pagesmith/pkg/build"
)

// Enhance returns a copy of files with the enhancements applied.
func Enhance(files build.FileMap) build.FileMap {
	out := files.Clone()
	for _, p := range out.Paths() {
		if isHTML(p) {
			content, _ := out.Get(p)
			out.Set(p, EnhanceHTML(content))
		}
	}
	if css := stylesheet(out); css != "" {
		content, _ := out.Get(css)
		out.Set(css, strings.TrimRight(content, "\n")+"\n"+designCSS)
	}
	return out
}

// EnhanceHTML injects the viewport meta tag and font link after <head> and
// the theme toggle before </body>. Each insertion is skipped when its
// anchor tag is missing. The viewport tag is not added when the document
// already declares one.
func EnhanceHTML(doc string) string {
	loc := locate(doc)

	var b strings.Builder
	b.Grow(len(doc) + len(viewportMeta) + len(fontLink) + len(themeToggle))

	cursor := 0
	if loc.headEnd >= 0 {
		b.WriteString(doc[:loc.headEnd])
		b.WriteString("\n")
		if !loc.hasViewport {
			b.WriteString(viewportMeta)
			b.WriteString("\n")
		}
		b.WriteString(fontLink)
		cursor = loc.headEnd
	}
	if loc.bodyClose >= cursor && loc.bodyClose >= 0 {
		b.WriteString(doc[cursor:loc.bodyClose])
		b.WriteString(themeToggle)
		cursor = loc.bodyClose
	}
	b.WriteString(doc[cursor:])
	return b.String()
}

type anchors struct {
	headEnd     int // offset just past the <head> start tag, -1 if absent
	bodyClose   int // offset of the last </body> end tag, -1 if absent
	hasViewport bool
}

// locate walks the token stream, keeping a running byte offset so the
// original text can be spliced without re-rendering it.
func locate(doc string) anchors {
	a := anchors{headEnd: -1, bodyClose: -1}
	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return a
		}
		n := len(z.Raw())
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "head":
				if a.headEnd < 0 {
					a.headEnd = offset + n
				}
			case "meta":
				if hasAttr && isViewportMeta(z) {
					a.hasViewport = true
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if bytes.Equal(name, []byte("body")) {
				a.bodyClose = offset
			}
		}
		offset += n
	}
}

func isViewportMeta(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "name" && strings.EqualFold(string(val), "viewport") {
			return true
		}
		if !more {
			return false
		}
	}
}

func isHTML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".html" || ext == ".htm"
}

// stylesheet picks the entry that receives the design CSS: style.css when
// present, otherwise the first .css file.
func stylesheet(files build.FileMap) string {
	first := ""
	for _, p := range files.Paths() {
		if strings.ToLower(path.Ext(p)) != ".css" {
			continue
		}
		if path.Base(p) == "style.css" {
			return p
		}
		if first == "" {
			first = p
		}
	}
	return first
}
