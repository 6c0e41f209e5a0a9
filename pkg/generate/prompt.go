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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NissesSenap/pagesmith/pkg/attachment"
)

// maxInlineAttachment bounds how much of a text attachment is copied into
// the prompt.
const maxInlineAttachment = 4 << 10

const promptPreamble = `You are generating a complete static web application that will be published on GitHub Pages.
Reply with a single JSON object and nothing else. Each key is a relative file path and each
value is the full file content as a string. The object must contain "index.html". Use only
HTML, CSS and vanilla JavaScript with no build step. Reference attachments by their file name.`

// BuildPrompt renders the instruction sent to the language model.
func BuildPrompt(b Brief) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	fmt.Fprintf(&sb, "\n\nTask: %s\nRound: %d\n\nBrief:\n%s\n", b.Task, b.Round, strings.TrimSpace(b.Brief))

	if len(b.Checks) > 0 {
		sb.WriteString("\nThe result will be evaluated with these checks:\n")
		for _, c := range b.Checks {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	if len(b.Attachments) > 0 {
		sb.WriteString("\nAttachments available next to index.html:\n")
		for _, f := range b.Attachments {
			fmt.Fprintf(&sb, "- %s (%s, %d bytes)\n", f.Name, f.MediaType, f.Size)
		}
		for _, f := range b.Attachments {
			if !f.IsText() {
				continue
			}
			content, truncated, err := readHead(f, maxInlineAttachment)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "\nContents of %s", f.Name)
			if truncated {
				fmt.Fprintf(&sb, " (first %d bytes)", maxInlineAttachment)
			}
			fmt.Fprintf(&sb, ":\n%s\n", content)
		}
	}
	return sb.String()
}

func readHead(f attachment.File, limit int64) (string, bool, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return "", false, err
	}
	defer fh.Close()
	data, err := io.ReadAll(io.LimitReader(fh, limit+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(data)) > limit {
		return string(data[:limit]), true, nil
	}
	return string(data), false, nil
}
