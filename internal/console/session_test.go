package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	doctor = "doc@y.com"
	convA  = "a@x.com_to_doc@y.com"
	convB  = "b@x.com_to_doc@y.com"
)

type sentText struct {
	conversation string
	text         string
}

type fakeBackend struct {
	mu        sync.Mutex
	list      func(ctx context.Context, call int) ([]chat.Summary, error)
	listCalls int
	watchErr  error
	watches   map[string]chan chat.Snapshot
	watchCtx  map[string]context.Context
	texts     []sentText
	textErr   error
	media     []string
	mediaFail string
	calls     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		watches:  make(map[string]chan chat.Snapshot),
		watchCtx: make(map[string]context.Context),
	}
}

func (f *fakeBackend) ListConversations(ctx context.Context) ([]chat.Summary, error) {
	f.mu.Lock()
	f.listCalls++
	call, list := f.listCalls, f.list
	f.mu.Unlock()
	if list == nil {
		return nil, nil
	}
	return list(ctx, call)
}

func (f *fakeBackend) WatchThread(ctx context.Context, id string) (<-chan chat.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	ch := make(chan chat.Snapshot, 4)
	f.watches[id] = ch
	f.watchCtx[id] = ctx
	return ch, nil
}

func (f *fakeBackend) SendText(_ context.Context, id, text string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{id, text})
	if f.textErr != nil {
		return nil, f.textErr
	}
	return &chat.Message{ConversationID: id, Sender: doctor, Text: text}, nil
}

func (f *fakeBackend) SendMedia(_ context.Context, id string, file chat.File) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.media = append(f.media, file.Name)
	if file.Name == f.mediaFail {
		return nil, errors.New("upload refused")
	}
	return &chat.Message{ConversationID: id, Sender: doctor}, nil
}

func (f *fakeBackend) StartCall(_ context.Context, id string, kind chat.CallKind) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	return chat.CallURL("https://clinic.test", id, kind)
}

func (f *fakeBackend) watch(t *testing.T, id string) (chan chat.Snapshot, context.Context) {
	t.Helper()
	var (
		ch  chan chat.Snapshot
		ctx context.Context
	)
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		ch, ctx = f.watches[id], f.watchCtx[id]
		return ch != nil
	}, time.Second, 5*time.Millisecond)
	return ch, ctx
}

func summaries(ids ...string) []chat.Summary {
	out := make([]chat.Summary, len(ids))
	for i, id := range ids {
		out[i] = chat.Summary{ID: id, PatientEmail: chat.PatientOf(id)}
	}
	return out
}

func newTestSession(t *testing.T, backend Backend, operator string) *Session {
	t.Helper()
	s := NewSession(backend, operator, bus.New(), zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestRefreshSelectsFirstConversation(t *testing.T) {
	f := newFakeBackend()
	f.list = func(context.Context, int) ([]chat.Summary, error) { return summaries(convB, convA), nil }
	s := newTestSession(t, f, doctor)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, status.Ready, s.Status().Current())
	assert.Len(t, s.Conversations(), 2)
	assert.Equal(t, convB, s.Selected())
	f.watch(t, convB)

	require.NoError(t, s.Select(context.Background(), convA))
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, convA, s.Selected(), "refresh keeps an existing selection")
}

func TestRefreshFailureKeepsList(t *testing.T) {
	f := newFakeBackend()
	boom := errors.New("store unavailable")
	f.list = func(_ context.Context, call int) ([]chat.Summary, error) {
		if call == 2 {
			return nil, boom
		}
		return summaries(convA), nil
	}
	s := newTestSession(t, f, doctor)

	require.NoError(t, s.Refresh(context.Background()))
	err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, status.Failed, s.Status().Current())
	assert.ErrorIs(t, s.Status().LastError(), boom)
	assert.Equal(t, summaries(convA), s.Conversations())

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, status.Ready, s.Status().Current())
}

func TestRefreshOnlyLatestCommits(t *testing.T) {
	f := newFakeBackend()
	started := make(chan struct{})
	f.list = func(ctx context.Context, call int) ([]chat.Summary, error) {
		if call == 1 {
			close(started)
			<-ctx.Done()
			return summaries(convA), nil
		}
		return summaries(convB), nil
	}
	s := newTestSession(t, f, "")

	first := make(chan error, 1)
	go func() { first <- s.Refresh(context.Background()) }()
	<-started

	require.NoError(t, s.Refresh(context.Background()))
	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded refresh was not cancelled")
	}
	assert.Equal(t, summaries(convB), s.Conversations())
	assert.Equal(t, status.Ready, s.Status().Current())
}

func TestSelectReplacesSubscription(t *testing.T) {
	f := newFakeBackend()
	s := newTestSession(t, f, doctor)

	require.NoError(t, s.Select(context.Background(), convA))
	_, ctxA := f.watch(t, convA)

	require.NoError(t, s.Select(context.Background(), convB))
	assert.Error(t, ctxA.Err(), "previous subscription cancelled before the new one starts")
	_, ctxB := f.watch(t, convB)
	assert.NoError(t, ctxB.Err())
	assert.Equal(t, convB, s.Selected())
	assert.Empty(t, s.Messages())
}

func TestSnapshotsReplaceAndStaleOnesAreDiscarded(t *testing.T) {
	f := newFakeBackend()
	s := newTestSession(t, f, doctor)
	require.NoError(t, s.Select(context.Background(), convB))
	ch, _ := f.watch(t, convB)

	ch <- chat.Snapshot{ConversationID: convA, Messages: []chat.Message{{ID: "a1", ConversationID: convA}}}
	ch <- chat.Snapshot{ConversationID: convB, Messages: []chat.Message{
		{ID: "b1", ConversationID: convB}, {ID: "b2", ConversationID: convB},
	}}
	require.Eventually(t, func() bool { return len(s.Messages()) == 2 }, time.Second, 5*time.Millisecond)
	for _, m := range s.Messages() {
		assert.Equal(t, convB, m.ConversationID)
	}

	ch <- chat.Snapshot{ConversationID: convB, Messages: []chat.Message{{ID: "b3", ConversationID: convB}}}
	require.Eventually(t, func() bool {
		msgs := s.Messages()
		return len(msgs) == 1 && msgs[0].ID == "b3"
	}, time.Second, 5*time.Millisecond)
}

func TestSelectWatchFailure(t *testing.T) {
	f := newFakeBackend()
	f.watchErr = errors.New("daemon gone")
	s := newTestSession(t, f, doctor)

	assert.Error(t, s.Select(context.Background(), convA))
	assert.Equal(t, convA, s.Selected())
}

func TestSendTextNoOps(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		selected string
		input    string
	}{
		{"blank input", doctor, convA, "  \n\t"},
		{"empty input", doctor, convA, ""},
		{"no selection", doctor, "", "hello"},
		{"no operator", "", convA, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			s := newTestSession(t, f, tt.operator)
			if tt.selected != "" {
				require.NoError(t, s.Select(context.Background(), tt.selected))
			}
			s.SetInput(tt.input)

			require.NoError(t, s.SendText(context.Background()))
			assert.Empty(t, f.texts)
			assert.Equal(t, tt.input, s.Input())
		})
	}
}

func TestSendTextClearsInputOnSuccess(t *testing.T) {
	f := newFakeBackend()
	s := newTestSession(t, f, doctor)
	require.NoError(t, s.Select(context.Background(), convA))

	s.SetInput("Take the medicine twice a day")
	require.NoError(t, s.SendText(context.Background()))
	assert.Equal(t, []sentText{{convA, "Take the medicine twice a day"}}, f.texts)
	assert.Empty(t, s.Input())
}

func TestSendTextKeepsInputOnFailure(t *testing.T) {
	f := newFakeBackend()
	f.textErr = errors.New("offline")
	s := newTestSession(t, f, doctor)
	require.NoError(t, s.Select(context.Background(), convA))

	s.SetInput("hello")
	assert.Error(t, s.SendText(context.Background()))
	assert.Equal(t, "hello", s.Input())
}

func TestSendMediaStopsAtFirstFailure(t *testing.T) {
	f := newFakeBackend()
	f.mediaFail = "b.pdf"
	s := newTestSession(t, f, doctor)
	require.NoError(t, s.Select(context.Background(), convA))

	files := []chat.File{
		{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("a")},
		{Name: "b.pdf", ContentType: "application/pdf", Body: strings.NewReader("b")},
		{Name: "c.mp4", ContentType: "video/mp4", Body: strings.NewReader("c")},
	}
	sent, err := s.SendMedia(context.Background(), files)
	assert.Error(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"a.png", "b.pdf"}, f.media)
}

func TestSendMediaNoSelection(t *testing.T) {
	f := newFakeBackend()
	s := newTestSession(t, f, doctor)
	sent, err := s.SendMedia(context.Background(), []chat.File{{Name: "a.png"}})
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.media)
}

func TestStartCall(t *testing.T) {
	f := newFakeBackend()
	s := newTestSession(t, f, doctor)

	u, err := s.StartCall(context.Background(), chat.CallVideo)
	require.NoError(t, err)
	assert.Empty(t, u)
	assert.Empty(t, f.calls)

	require.NoError(t, s.Select(context.Background(), convA))
	u, err = s.StartCall(context.Background(), chat.CallAudio)
	require.NoError(t, err)
	assert.Equal(t, "https://clinic.test/admin/call?channel=a%40x.com_to_doc%40y.com&type=audio", u)
}

func TestIsMine(t *testing.T) {
	s := newTestSession(t, newFakeBackend(), doctor)
	assert.True(t, s.IsMine(chat.Message{Sender: doctor}))
	assert.False(t, s.IsMine(chat.Message{Sender: "a@x.com"}))

	anon := newTestSession(t, newFakeBackend(), "")
	assert.False(t, anon.IsMine(chat.Message{Sender: ""}))
}

func TestCloseCancelsSubscription(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, doctor, bus.New(), zap.NewNop())
	require.NoError(t, s.Select(context.Background(), convA))
	_, ctx := f.watch(t, convA)

	s.Close()
	assert.Error(t, ctx.Err())
}

func TestSessionPublishesConsoleEvents(t *testing.T) {
	b := bus.New()
	events, unsub := b.Subscribe("console.", "", 16)
	defer unsub()

	f := newFakeBackend()
	f.list = func(context.Context, int) ([]chat.Summary, error) { return summaries(convA), nil }
	s := NewSession(f, doctor, b, zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Refresh(context.Background()))
	ch, _ := f.watch(t, convA)
	ch <- chat.Snapshot{ConversationID: convA}

	want := []string{bus.KindConversationsChanged, bus.KindSelectionChanged, bus.KindThreadChanged}
	for _, kind := range want {
		select {
		case evt := <-events:
			assert.Equal(t, kind, evt.Kind)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", kind)
		}
	}
}
