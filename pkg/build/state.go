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

import "fmt"

// State is a step of the build workflow.
type State string

const (
	StateReceived   State = "Received"
	StateAuthorized State = "Authorized"
	StateGenerated  State = "Generated"
	StatePublished  State = "Published"
	StateNotified   State = "Notified"
	StateDone       State = "Done"
	StateRejected   State = "Rejected"
	StateAborted    State = "Aborted"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateRejected, StateAborted:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the workflow may move from one state to
// another. Rejected is only reachable from Received and Aborted only from
// Generated. Published may skip Notified when no evaluation URL was given.
func CanTransition(from, to State) bool {
	switch from {
	case StateReceived:
		return to == StateAuthorized || to == StateRejected
	case StateAuthorized:
		return to == StateGenerated
	case StateGenerated:
		return to == StatePublished || to == StateAborted
	case StatePublished:
		return to == StateNotified || to == StateDone
	case StateNotified:
		return to == StateDone
	default:
		return false
	}
}

// Transition validates a move and returns the new state.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("disallowed transition %s -> %s", from, to)
	}
	return to, nil
}
