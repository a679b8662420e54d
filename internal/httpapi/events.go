package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// keepAliveInterval keeps idle event streams open through proxies.
const keepAliveInterval = 25 * time.Second

// events streams thread snapshots as server-sent events, one "snapshot"
// event per change.
func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.conversation(w, r)
	if !ok {
		return
	}
	snapshots, err := h.Watcher.Watch(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.Logger.Error("encode snapshot", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
		if err := rc.Flush(); err != nil {
			h.Logger.Warn("flush event stream", zap.Error(err))
			return
		}
	}
}
