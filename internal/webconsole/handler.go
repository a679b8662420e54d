package webconsole

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed assets/service-worker.js
var workerJS []byte

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexData struct {
	Title          string
	RegisterWorker bool
	WorkerPath     string
}

// maxOutcomeBytes bounds the registration report body.
const maxOutcomeBytes = 4 << 10

// Handler serves the console shell, the worker asset and the registration
// report endpoint.
type Handler struct {
	bootstrap *Bootstrap
	logger    *zap.Logger
}

// NewHandler creates a handler.
func NewHandler(b *Bootstrap, logger *zap.Logger) *Handler {
	return &Handler{bootstrap: b, logger: logger}
}

// Mount registers the unauthenticated console routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.ServeIndex)
	r.Get(WorkerPath, h.ServeWorker)
	r.Post("/api/worker-registration", h.HandleRegistration)
}

// ServeIndex renders the console shell. The worker registration script is
// only included when the request host allows it.
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title:          "Patient chats",
		RegisterWorker: h.bootstrap.ShouldRegister(r.Host),
		WorkerPath:     WorkerPath,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		h.logger.Error("render index", zap.Error(err))
	}
}

// ServeWorker serves the embedded service worker script.
func (h *Handler) ServeWorker(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(workerJS)
}

// HandleRegistration logs the outcome the page reports.
func (h *Handler) HandleRegistration(w http.ResponseWriter, r *http.Request) {
	var o Outcome
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOutcomeBytes)).Decode(&o); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid registration report"})
		return
	}
	h.bootstrap.Record(o, r.Host)
	w.WriteHeader(http.StatusNoContent)
}
