package views

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	// EmptyThread is shown for a conversation without messages.
	EmptyThread = "No messages yet"
	// NoSelection is shown before a conversation is opened.
	NoSelection = "Select a conversation"

	wrapWidth = 60
)

// MessageThread shows one conversation and its composer. Own messages are
// right-aligned and labelled "You"; the patient's are left-aligned under
// the patient name.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	list     *tview.Table
	composer *tview.InputField
	now      func() time.Time
	onSend   func()
	onInput  func(text string)
}

func NewMessageThread(theme *ui.Theme) *MessageThread {
	list := tview.NewTable().
		SetSelectable(false, false).
		SetBorders(false)
	list.SetBorder(true)
	list.SetBorderColor(theme.BorderColor)
	list.SetBackgroundColor(theme.BgColor)
	list.SetTitleColor(theme.TitleColor)
	list.SetTitle(" Messages ")

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Type your message (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	mt := &MessageThread{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(list, 0, 1, true).
			AddItem(composer, 3, 0, false),
		theme:    theme,
		list:     list,
		composer: composer,
		now:      time.Now,
	}

	composer.SetChangedFunc(func(text string) {
		if mt.onInput != nil {
			mt.onInput(text)
		}
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			mt.onSend()
		}
	})
	return mt
}

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func()) { mt.onSend = fn }

// SetOnInput sets the callback for every composer edit.
func (mt *MessageThread) SetOnInput(fn func(text string)) { mt.onInput = fn }

// SetComposerText replaces the composer text when it differs.
func (mt *MessageThread) SetComposerText(text string) {
	if mt.composer.GetText() != text {
		mt.composer.SetText(text)
	}
}

func (mt *MessageThread) Composer() *tview.InputField { return mt.composer }

func (mt *MessageThread) Messages() *tview.Table { return mt.list }

// Update renders msgs, oldest first. patient labels the other side; isMine
// decides which side a message is drawn on.
func (mt *MessageThread) Update(patient string, msgs []chat.Message, isMine func(chat.Message) bool) {
	mt.list.Clear()
	mt.list.SetTitle(fmt.Sprintf(" %s ", clean(patient)))

	if len(msgs) == 0 {
		mt.placeholder(EmptyThread)
		return
	}

	now := mt.now()
	row := 0
	add := func(text string, align int, color tcell.Color, attrs tcell.AttrMask) {
		mt.list.SetCell(row, 0, tview.NewTableCell(text).
			SetAlign(align).
			SetExpansion(1).
			SetTextColor(color).
			SetAttributes(attrs))
		row++
	}

	for _, m := range msgs {
		align, color, who := tview.AlignLeft, mt.theme.FgColor, clean(patient)
		if isMine(m) {
			align, color, who = tview.AlignRight, mt.theme.AccentColor, "You"
		}
		add(fmt.Sprintf("%s · %s", who, FormatTimestamp(m.Timestamp, now)), align, color, tcell.AttrBold)
		for _, line := range messageLines(m) {
			add(line, align, color, tcell.AttrNone)
		}
		add("", align, color, tcell.AttrNone)
	}
	mt.list.ScrollToEnd()
}

// ShowNoSelection shows the placeholder used before a conversation is opened.
func (mt *MessageThread) ShowNoSelection() {
	mt.list.Clear()
	mt.list.SetTitle(" Messages ")
	mt.placeholder(NoSelection)
}

func (mt *MessageThread) placeholder(text string) {
	mt.list.SetCell(0, 0, tview.NewTableCell(text).
		SetAlign(tview.AlignCenter).
		SetExpansion(1).
		SetTextColor(mt.theme.MutedColor))
}

// messageLines returns the wrapped body of m, escaped for a table cell.
func messageLines(m chat.Message) []string {
	var lines []string
	if m.Media != nil {
		name := m.Media.FileName
		if name == "" {
			name = "attachment"
		}
		lines = append(lines, tview.Escape(fmt.Sprintf("[%s] ", m.Media.Kind))+clean(name))
		for _, l := range wrap(m.Media.URL, wrapWidth) {
			lines = append(lines, clean(l))
		}
	}
	for _, l := range wrap(m.Text, wrapWidth) {
		lines = append(lines, clean(l))
	}
	return lines
}

// wrap splits s into lines of at most width runes, breaking at spaces and
// splitting words longer than width.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var line strings.Builder
		n := 0
		flush := func() {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > width {
				if n > 0 {
					flush()
				}
				r := []rune(word)
				line.WriteString(string(r[:width]))
				flush()
				word = string(r[width:])
			}
			wl := utf8.RuneCountInString(word)
			if n > 0 && n+1+wl > width {
				flush()
			}
			if n > 0 {
				line.WriteByte(' ')
				n++
			}
			line.WriteString(word)
			n += wl
		}
		if n > 0 {
			flush()
		}
	}
	return lines
}
