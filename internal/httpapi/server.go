// Package httpapi is the daemon's HTTP surface: the JSON API used by the web
// console, its live thread event stream, signed media downloads and
// conversation transcripts.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/blob"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/webconsole"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the components the HTTP API serves.
type Deps struct {
	Aggregator *chat.Aggregator
	Messenger  *chat.Messenger
	Watcher    *chat.Watcher
	Blobs      *blob.Store
	Media      *auth.MediaSigner
	Verifier   auth.TokenVerifier
	Operators  auth.Authorizer
	Web        *webconsole.Handler
	CallBase   string
	Logger     *zap.Logger
}

type handler struct {
	Deps
}

// maxUploadBytes bounds a multipart media upload request.
const maxUploadBytes = 32 << 20

// NewRouter builds the HTTP router.
func NewRouter(d Deps) http.Handler {
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))

	d.Web.Mount(r)
	r.Get("/media/*", h.serveMedia)

	r.Route("/api/conversations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.HTTPMiddleware(d.Verifier, d.Operators, d.Logger, false))
			r.Get("/", h.listConversations)
			r.Get("/{id}/messages", h.listMessages)
			r.Post("/{id}/messages", h.sendText)
			r.Post("/{id}/media", h.sendMedia)
			r.Post("/{id}/call", h.startCall)
			r.Get("/{id}/transcript", h.transcript)
		})
		r.With(auth.HTTPMiddleware(d.Verifier, d.Operators, d.Logger, true)).
			Get("/{id}/events", h.events)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrNotOperator), errors.Is(err, chat.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidConversation),
		errors.Is(err, chat.ErrInvalidCallKind),
		errors.Is(err, blob.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

// conversation returns the path's conversation id after checking the
// operator owns it.
func (h *handler) conversation(w http.ResponseWriter, r *http.Request) (id, operator string, ok bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, chat.ErrInvalidConversation)
		return "", "", false
	}
	operator, _ = auth.OperatorFrom(r.Context())
	if err := chat.CheckAccess(operator, id); err != nil {
		h.writeError(w, r, err)
		return "", "", false
	}
	return id, operator, true
}
