package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// EmptyConversations is shown when the operator has no conversations.
const EmptyConversations = "No active chats"

// ConversationList is the operator's conversation table.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []chat.Summary
	visible []chat.Summary
	filter  string
	now     func() time.Time
}

func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{Table: table, theme: theme, now: time.Now}
}

// Update replaces the list and keeps the cursor on selected when visible.
func (cl *ConversationList) Update(convs []chat.Summary, selected string) {
	cl.convs = convs
	cl.render(selected)
}

// SetFilter narrows the list to conversations whose patient name, email or
// last message contain filter, ignoring case. An empty filter shows all.
func (cl *ConversationList) SetFilter(filter string) {
	current := cl.SelectedID()
	cl.filter = strings.TrimSpace(filter)
	cl.render(current)
}

func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) matches(c chat.Summary) bool {
	if cl.filter == "" {
		return true
	}
	f := strings.ToLower(cl.filter)
	for _, field := range []string{PatientLabel(c), c.PatientEmail, c.LastMessage} {
		if strings.Contains(strings.ToLower(field), f) {
			return true
		}
	}
	return false
}

func (cl *ConversationList) render(selected string) {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" PATIENT", 2},
		{" URGENCY", 0},
		{" LAST MESSAGE", 3},
		{" TIME", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if cl.matches(c) {
			cl.visible = append(cl.visible, c)
		}
	}

	now := cl.now()
	selRow := 1
	for i, c := range cl.visible {
		row := i + 1
		if c.ID == selected {
			selRow = row
		}
		urgency := c.Patient.Urgency
		if urgency == "" {
			urgency = chat.UrgencyMedium
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+clean(PatientLabel(c))).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+strings.ToUpper(string(urgency))).SetTextColor(cl.theme.Urgency(urgency)).SetAttributes(tcell.AttrBold))
		cl.SetCell(row, 2, tview.NewTableCell(" "+clean(c.LastMessage)).SetExpansion(3).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+FormatTimestamp(c.LastMessageTime, now)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
	}

	if len(cl.visible) == 0 {
		text := EmptyConversations
		if cl.filter != "" && len(cl.convs) > 0 {
			text = "No chats match " + cl.filter
		}
		cl.SetCell(1, 0, tview.NewTableCell(" "+tview.Escape(text)).
			SetSelectable(false).
			SetTextColor(cl.theme.MutedColor))
	} else {
		cl.Select(selRow, 0)
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

// SelectedID returns the conversation id under the cursor, or "".
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.IDAt(row)
}

// IDAt returns the id of the nth visible conversation (1-based), or "".
func (cl *ConversationList) IDAt(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].ID
}

// PatientLabel is the display name of a conversation's patient.
func PatientLabel(c chat.Summary) string {
	if c.Patient.Name != "" {
		return c.Patient.Name
	}
	return c.PatientEmail
}
