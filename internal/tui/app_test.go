package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/console"
	"github.com/chatconsole/chatconsole/internal/rpc"
	"github.com/chatconsole/chatconsole/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	doctor = "doc@y.com"
	anaID  = "ana@x.com_to_doc@y.com"
	bobID  = "bob@x.com_to_doc@y.com"
)

type fakeBackend struct {
	mu      sync.Mutex
	watched []string
}

func (f *fakeBackend) ListConversations(context.Context) ([]chat.Summary, error) {
	return []chat.Summary{
		{ID: anaID, PatientEmail: "ana@x.com", Patient: chat.PatientProfile{Name: "Ana Souza", Urgency: chat.UrgencyHigh}, LastMessage: "hi"},
		{ID: bobID, PatientEmail: "bob@x.com", LastMessage: "thanks"},
	}, nil
}

func (f *fakeBackend) WatchThread(ctx context.Context, id string) (<-chan chat.Snapshot, error) {
	f.mu.Lock()
	f.watched = append(f.watched, id)
	f.mu.Unlock()
	ch := make(chan chat.Snapshot, 1)
	ch <- chat.Snapshot{ConversationID: id, Messages: []chat.Message{
		{ID: "m1", ConversationID: id, Sender: chat.PatientOf(id), Text: "hello from " + chat.PatientOf(id)},
	}}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeBackend) SendText(_ context.Context, id, text string) (*chat.Message, error) {
	return &chat.Message{ConversationID: id, Sender: doctor, Text: text}, nil
}

func (f *fakeBackend) SendMedia(_ context.Context, id string, file chat.File) (*chat.Message, error) {
	return &chat.Message{ConversationID: id, Sender: doctor}, nil
}

func (f *fakeBackend) StartCall(_ context.Context, id string, kind chat.CallKind) (string, error) {
	return chat.CallURL("https://clinic.test", id, kind)
}

type fakeDaemon struct{}

func (fakeDaemon) Status(context.Context) (*rpc.GetStatusResponse, error) {
	return &rpc.GetStatusResponse{Instance: "test", UptimeMs: int64(2 * time.Hour / time.Millisecond), MessageCount: 7}, nil
}

func newTestApp(t *testing.T) (*App, *console.Session) {
	t.Helper()
	b := bus.New()
	sess := console.NewSession(&fakeBackend{}, doctor, b, zap.NewNop())
	a := NewApp(sess, b, fakeDaemon{}, "test", zap.NewNop())
	t.Cleanup(a.Stop)
	return a, sess
}

func waitSelected(t *testing.T, s *console.Session, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Selected() == id && len(s.Messages()) == 1 && s.Messages()[0].ConversationID == id
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAppRendersSessionState(t *testing.T) {
	a, sess := newTestApp(t)
	require.NoError(t, sess.Refresh(context.Background()))
	waitSelected(t, sess, anaID)

	a.pollDaemon()
	a.renderList()
	a.renderHeader()
	a.renderThread()

	assert.Equal(t, anaID, a.list.IDAt(1))
	assert.Equal(t, anaID, a.list.SelectedID())

	header := a.info.GetText(true)
	assert.Contains(t, header, "Operator: doc@y.com")
	assert.Contains(t, header, "Refresh:  READY")
	assert.Contains(t, header, "Chats:    2")
	assert.Contains(t, header, "Uptime:   2h0m")

	assert.Equal(t, "Ana Souza", a.crumbLabel(pageThread))
	assert.Contains(t, a.patient.GetText(true), "Ana Souza")
	assert.Contains(t, a.thread.Messages().GetCell(1, 0).Text, "hello from ana@x.com")
}

func TestAppOpenByDigit(t *testing.T) {
	a, sess := newTestApp(t)
	require.NoError(t, sess.Refresh(context.Background()))
	waitSelected(t, sess, anaID)
	a.renderList()

	assert.Nil(t, a.handleKey(tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone)))
	assert.Equal(t, pageThread, a.pages.Current())
	waitSelected(t, sess, bobID)

	// Esc returns to the list; the selection stays.
	assert.Nil(t, a.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.Equal(t, pageConversations, a.pages.Current())
	assert.Equal(t, bobID, sess.Selected())
}

func TestAppOpenCommand(t *testing.T) {
	a, sess := newTestApp(t)
	require.NoError(t, sess.Refresh(context.Background()))
	waitSelected(t, sess, anaID)
	a.renderList()

	a.runCommand(ParseCommand("open bob"))
	assert.Equal(t, pageThread, a.pages.Current())
	waitSelected(t, sess, bobID)
	assert.Equal(t, "bob", a.list.Filter())

	a.runCommand(ParseCommand("open nobody"))
	msg := a.flash.Current()
	require.NotNil(t, msg)
	assert.Equal(t, ui.FlashWarn, msg.Level)
}

func TestAppCommandErrors(t *testing.T) {
	a, _ := newTestApp(t)

	a.runCommand(ParseCommand("frobnicate"))
	require.NotNil(t, a.flash.Current())
	assert.True(t, strings.HasPrefix(a.flash.Current().Text, "Unknown command"))

	a.runCommand(ParseCommand("call fax"))
	require.NotNil(t, a.flash.Current())
	assert.Equal(t, ui.FlashErr, a.flash.Current().Level)

	a.runCommand(ParseCommand("help"))
	assert.Equal(t, pageHelp, a.pages.Current())
}

func TestAppHints(t *testing.T) {
	a, _ := newTestApp(t)
	text := a.menu.GetText(true)
	assert.Contains(t, text, "<Enter> Open")
	assert.Contains(t, text, "<r> Refresh")
	assert.NotContains(t, text, "Esc")
}
