package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPages() *Pages {
	p := NewPages()
	for _, name := range []string{"Conversations", "Thread", "Call", "Help"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	return p
}

func TestPagesPushPop(t *testing.T) {
	p := newPages()
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })

	p.Reset("Conversations")
	p.Push("Thread")
	p.Push("Call")
	assert.Equal(t, []string{"Conversations", "Thread", "Call"}, p.Stack())
	assert.Equal(t, "Call", p.Current())

	assert.Equal(t, "Call", p.Pop())
	assert.Equal(t, "Thread", p.Current())
	assert.Equal(t, "Thread", p.Pop())
	assert.Equal(t, "", p.Pop(), "root page must not be popped")
	assert.Equal(t, []string{"Conversations"}, p.Stack())

	require.Len(t, changes, 5)
	assert.Equal(t, []string{"Conversations", "Thread"}, changes[1])
}

func TestPagesPushExistingTruncates(t *testing.T) {
	p := newPages()
	p.Reset("Conversations")
	p.Push("Thread")
	p.Push("Help")
	p.Push("Thread")
	assert.Equal(t, []string{"Conversations", "Thread"}, p.Stack())
	name, _ := p.GetFrontPage()
	assert.Equal(t, "Thread", name)
}

func TestFlashExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	assert.Nil(t, f.Current())

	f.Err(errors.New("send failed"))
	msg := f.Current()
	require.NotNil(t, msg)
	assert.Equal(t, FlashErr, msg.Level)
	assert.Equal(t, "send failed", msg.Text)

	select {
	case got := <-f.Watch():
		assert.Equal(t, "send failed", got.Text)
	default:
		t.Fatal("no message on watch channel")
	}

	now = now.Add(11 * time.Second)
	assert.Nil(t, f.Current())

	f.Info("refreshed")
	assert.Equal(t, FlashInfo, f.Current().Level)
}

func TestFlashBar(t *testing.T) {
	fb := NewFlashBar(DefaultTheme())
	fb.Update(&FlashMessage{Text: "upload failed", Level: FlashWarn})
	assert.Contains(t, fb.GetText(true), "upload failed")
	fb.Update(nil)
	assert.Empty(t, strings.TrimSpace(fb.GetText(true)))
}

func TestCrumbs(t *testing.T) {
	c := NewCrumbs(DefaultTheme())
	c.Update([]string{"Conversations", "Ana Souza"})
	assert.Contains(t, c.GetText(true), " Conversations  >  Ana Souza ")
}

func TestMenu(t *testing.T) {
	m := NewMenu(DefaultTheme())
	m.Update([]MenuHint{{Key: "Enter", Description: "Open"}, {Key: "0-9", Description: "Jump", Numeric: true}})
	text := m.GetText(true)
	assert.Contains(t, text, "<Enter> Open")
	assert.Contains(t, text, "<0-9> Jump")
}

func TestMenuColumns(t *testing.T) {
	m := NewMenu(DefaultTheme())
	var hints []MenuHint
	for i := 0; i < menuRows+1; i++ {
		hints = append(hints, MenuHint{Key: string(rune('a' + i)), Description: "Do"})
	}
	lines := strings.Split(strings.TrimRight(m.layout(hints), "\n"), "\n")
	require.Len(t, lines, menuRows)
	assert.Contains(t, lines[0], "<a>")
	assert.Contains(t, lines[0], "<g>")
	assert.NotContains(t, lines[1], "<g>")
	assert.Empty(t, m.layout(nil))
}

func TestPromptComplete(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	p.SetCommands([]string{"refresh", "open", "quit", "call", "attach", "help"})
	assert.Equal(t, "open ", p.Complete("o"))
	assert.Equal(t, "call ", p.Complete("ca"))
	assert.Equal(t, "x", p.Complete("x"))
	assert.Equal(t, "open ana", p.Complete("open ana"))

	p.SetCommands([]string{"refresh", "reopen"})
	assert.Equal(t, "re", p.Complete("r"))
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	for _, cmd := range []string{"open ana", "open ana", "refresh"} {
		p.remember(cmd)
	}
	assert.Equal(t, []string{"open ana", "refresh"}, p.History())

	p.Activate(PromptCommand)
	p.recall(-1)
	assert.Equal(t, "refresh", p.GetText())
	p.recall(-1)
	assert.Equal(t, "open ana", p.GetText())
	p.recall(-1)
	assert.Equal(t, "open ana", p.GetText())
	p.recall(1)
	assert.Equal(t, "refresh", p.GetText())
	p.recall(1)
	assert.Equal(t, "", p.GetText())
	p.recall(1)
	assert.Equal(t, "", p.GetText())
}

func TestFlashSuccessAndClear(t *testing.T) {
	f := NewFlashModel()
	f.Success("Sent 2 file(s)")
	require.NotNil(t, f.Current())
	assert.Equal(t, FlashOK, f.Current().Level)
	f.Clear()
	assert.Nil(t, f.Current())
}

func TestOperatorInfo(t *testing.T) {
	oi := NewOperatorInfo(DefaultTheme())
	oi.Update(OperatorData{Instance: "main", Refresh: "READY", Conversations: 3, Uptime: 90 * time.Minute})
	text := oi.GetText(true)
	assert.Contains(t, text, "Operator: -")
	assert.Contains(t, text, "Chats:    3")
	assert.Contains(t, text, "Uptime:   1h30m")
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0m", FormatUptime(30*time.Second))
	assert.Equal(t, "45m", FormatUptime(45*time.Minute))
	assert.Equal(t, "26h5m", FormatUptime(26*time.Hour+5*time.Minute))
}

func TestThemeUrgency(t *testing.T) {
	th := DefaultTheme()
	assert.Equal(t, th.UrgencyHighColor, th.Urgency(chat.UrgencyHigh))
	assert.Equal(t, th.UrgencyLowColor, th.Urgency(chat.UrgencyLow))
	assert.Equal(t, th.UrgencyMedColor, th.Urgency(chat.UrgencyMedium))
	assert.Equal(t, th.UrgencyMedColor, th.Urgency(""))
	assert.Equal(t, th.UrgencyHighColor, th.Urgency("High"))
	assert.Equal(t, th.UrgencyMedColor, th.Urgency("critical"))
}
