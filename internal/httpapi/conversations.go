package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/chatconsole/chatconsole/internal/auth"
	"github.com/chatconsole/chatconsole/internal/chat"
	"go.uber.org/zap"
)

type conversationsResponse struct {
	Operator      string         `json:"operator"`
	Conversations []chat.Summary `json:"conversations"`
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	op, _ := auth.OperatorFrom(r.Context())
	summaries, err := h.Aggregator.Summaries(r.Context(), op)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []chat.Summary{}
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Operator: op, Conversations: summaries})
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.conversation(w, r)
	if !ok {
		return
	}
	snap, err := h.Watcher.Snapshot(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type sendTextRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Message *chat.Message `json:"message"`
}

func (h *handler) sendText(w http.ResponseWriter, r *http.Request) {
	id, op, ok := h.conversation(w, r)
	if !ok {
		return
	}
	var req sendTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	msg, err := h.Messenger.SendText(r.Context(), id, op, req.Text)
	if err != nil {
		h.Logger.Error("send text", zap.String("conversation", id), zap.Error(err))
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: msg})
}

type mediaResponse struct {
	Sent     int            `json:"sent"`
	Messages []chat.Message `json:"messages"`
	Error    string         `json:"error,omitempty"`
}

// sendMedia uploads every part of the "files" field in order and stops at
// the first failure.
func (h *handler) sendMedia(w http.ResponseWriter, r *http.Request) {
	id, op, ok := h.conversation(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart upload"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no files"})
		return
	}

	resp := mediaResponse{Messages: []chat.Message{}}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			resp.Error = err.Error()
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		msg, err := h.Messenger.SendMedia(r.Context(), id, op, chat.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
		_ = f.Close()
		if err != nil {
			h.Logger.Error("send media", zap.String("conversation", id),
				zap.String("file", fh.Filename), zap.Int("sent", resp.Sent), zap.Error(err))
			code := statusFor(err)
			resp.Error = err.Error()
			if code == http.StatusInternalServerError {
				resp.Error = "internal error"
			}
			writeJSON(w, code, resp)
			return
		}
		resp.Sent++
		resp.Messages = append(resp.Messages, *msg)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) startCall(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.conversation(w, r)
	if !ok {
		return
	}
	kind, err := chat.ParseCallKind(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := chat.CallURL(h.CallBase, id, kind)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}
