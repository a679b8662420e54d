package httpapi

import (
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// serveMedia serves a blob to holders of a token signed for its key.
func (h *handler) serveMedia(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid key"})
		return
	}
	if err := h.Media.Check(r.URL.Query().Get("token"), key); err != nil {
		h.Logger.Warn("media access denied", zap.String("key", key), zap.Error(err))
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid media token"})
		return
	}

	f, err := h.Blobs.Open(key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(w, r, path.Base(key), info.ModTime(), f)
}
