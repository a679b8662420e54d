package httpapi

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/yuin/goldmark"
)

var transcriptTmpl = template.Must(template.New("transcript").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>{{.Body}}</body></html>
`))

// transcriptMarkdown renders a thread as markdown, labelling the operator's
// own messages "You".
func transcriptMarkdown(patient string, operator string, msgs []chat.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation with %s\n\n", patient)
	if len(msgs) == 0 {
		b.WriteString("_No messages yet_\n")
		return b.String()
	}
	for _, m := range msgs {
		who := m.Sender
		if m.Sender == operator {
			who = "You"
		}
		fmt.Fprintf(&b, "**%s** · %s\n\n", who, m.Timestamp.Format("2006-01-02 15:04"))
		if m.Media != nil {
			fmt.Fprintf(&b, "[%s](%s) (%s)\n\n", m.Media.FileName, m.Media.URL, m.Media.Kind)
			continue
		}
		for _, line := range strings.Split(m.Text, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (h *handler) transcript(w http.ResponseWriter, r *http.Request) {
	id, op, ok := h.conversation(w, r)
	if !ok {
		return
	}
	snap, err := h.Watcher.Snapshot(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(transcriptMarkdown(chat.PatientOf(id), op, snap.Messages)), &body); err != nil {
		h.writeError(w, r, fmt.Errorf("render transcript: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = transcriptTmpl.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Transcript " + chat.PatientOf(id),
		Body:  template.HTML(body.String()),
	})
}
