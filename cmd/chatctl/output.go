package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/fatih/color"
)

var urgencyColors = map[chat.Urgency]*color.Color{
	chat.UrgencyHigh:   color.New(color.FgRed, color.Bold),
	chat.UrgencyMedium: color.New(color.FgYellow),
	chat.UrgencyLow:    color.New(color.FgGreen),
}

func urgencyLabel(u chat.Urgency) string {
	if u == "" {
		u = chat.UrgencyMedium
	}
	return urgencyColors[chat.ParseUrgency(string(u))].Sprint(strings.ToUpper(string(u)))
}

func stamp(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.In(now.Location())
	if y, m, d := t.Date(); y == now.Year() && m == now.Month() && d == now.Day() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func printStatus(w io.Writer, st *rpc.GetStatusResponse) {
	label := color.New(color.Bold)
	label.Fprint(w, "Instance:      ")
	fmt.Fprintln(w, st.Instance)
	label.Fprint(w, "Uptime:        ")
	fmt.Fprintln(w, (time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second))
	label.Fprint(w, "Operators:     ")
	fmt.Fprintln(w, strings.Join(st.Operators, ", "))
	label.Fprint(w, "Conversations: ")
	fmt.Fprintln(w, st.ConversationCount)
	label.Fprint(w, "Messages:      ")
	fmt.Fprintln(w, st.MessageCount)
}

func printConversations(w io.Writer, convs []chat.Summary, now time.Time) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No active chats")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATIENT\tURGENCY\tLAST MESSAGE\tTIME\tID")
	for _, c := range convs {
		name := c.Patient.Name
		if name == "" {
			name = c.PatientEmail
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, urgencyLabel(c.Patient.Urgency), truncate(c.LastMessage, 40), stamp(c.LastMessageTime, now), c.ID)
	}
	_ = tw.Flush()
}

func printMessages(w io.Writer, msgs []chat.Message, operator string, now time.Time) {
	mine := color.New(color.FgCyan, color.Bold)
	theirs := color.New(color.Bold)
	for _, m := range msgs {
		who := theirs.Sprint(m.Sender)
		if m.Sender == operator {
			who = mine.Sprint("You")
		}
		body := m.Text
		if m.Media != nil {
			body = strings.TrimSpace(fmt.Sprintf("[%s] %s %s %s", m.Media.Kind, m.Media.FileName, m.Media.URL, m.Text))
		}
		fmt.Fprintf(w, "%s %s  %s\n", stamp(m.Timestamp, now), who, body)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
