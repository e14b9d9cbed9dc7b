package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cinelog/cinelog/internal/pipeline"
)

// keepAliveInterval paces SSE comment lines so intermediaries don't drop
// an idle stream.
const keepAliveInterval = 30 * time.Second

// StreamEvents handles GET /api/v1/events, a server-sent event stream of
// collection views. The client gets the current view immediately and a
// fresh one after every change; the subscription ends with the connection.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	criteria, spec, err := parseViewQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Initial state before any mutation arrives.
	records, err := h.movieStore.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.feed.Subscribe(userID)
	defer h.feed.Unsubscribe(userID, ch)

	writeView := func(view pipeline.View) bool {
		data, err := json.Marshal(view)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeView(pipeline.Recompute(records, criteria, spec, time.Now())) {
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				return
			}
			if !writeView(pipeline.Recompute(snapshot.Records, criteria, spec, time.Now())) {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
