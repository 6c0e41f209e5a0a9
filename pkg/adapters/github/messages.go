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

import "fmt"

// Commit message templates.
const (
	messageAdd    = "Add %s"
	messageUpdate = "Update %s (round %d)"

	descriptionTemplate = "Generated app for task %s"
)

func formatAddMessage(path string) string {
	return fmt.Sprintf(messageAdd, path)
}

func formatUpdateMessage(path string, round int) string {
	if round < 1 {
		round = 1
	}
	return fmt.Sprintf(messageUpdate, path, round)
}

func formatDescription(task string) string {
	if task == "" {
		return ""
	}
	return fmt.Sprintf(descriptionTemplate, task)
}
