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

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
)

type eventsHandler struct {
	hub    *EventHub
	logger logr.Logger
}

// streamEvents handles GET /tasks/{jobID}/events (WebSocket upgrade).
func (h *eventsHandler) streamEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	log := h.logger.WithValues("job", jobID)

	if !h.hub.Exists(jobID) {
		writeError(w, http.StatusNotFound, "job not found", "")
		return
	}

	var after int64
	if afterParam := r.URL.Query().Get("after"); afterParam != "" {
		var err error
		after, err = strconv.ParseInt(afterParam, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after parameter", err.Error())
			return
		}
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error(err, "failed to accept websocket")
		return
	}
	defer conn.CloseNow() //nolint:errcheck

	// Write-only: CloseRead handles the client's close frame.
	ctx := conn.CloseRead(r.Context())

	history, ch, unsubscribe := h.hub.Subscribe(jobID, after)
	defer unsubscribe()

	send := func(msg WSMessage) bool {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Error(err, "failed to marshal event")
			return false
		}
		return conn.Write(ctx, websocket.MessageText, data) == nil
	}

	for _, e := range history {
		if !send(WSMessage{Type: MessageJobEvent, Data: e}) {
			return
		}
	}

	for ch != nil {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				ch = nil
				continue
			}
			if !send(WSMessage{Type: MessageJobEvent, Data: e}) {
				return
			}
		}
	}

	// The channel also closes when a slow subscriber is evicted; only a
	// completed stream gets job_complete.
	result, done := h.hub.Result(jobID)
	if !done && !h.hub.Exists(jobID) {
		_ = conn.Close(websocket.StatusGoingAway, "job expired")
		return
	}
	if !done {
		_ = conn.Close(websocket.StatusPolicyViolation, "slow consumer evicted")
		return
	}
	send(WSMessage{Type: MessageJobComplete, Data: result})
	_ = conn.Close(websocket.StatusNormalClosure, "job complete")
}
