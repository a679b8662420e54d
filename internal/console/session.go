// Package console holds the view state of one operator's console: the
// conversation list, the selected conversation and its live thread, and the
// composer input. Front ends (the TUI, tests) drive a Session and redraw when
// it publishes console events on its bus.
package console

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/chat"
	"github.com/chatconsole/chatconsole/internal/status"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by a Refresh whose result was discarded because a
// newer Refresh started while it was in flight.
var ErrSuperseded = errors.New("refresh superseded")

// Backend is the daemon API a session talks to.
type Backend interface {
	ListConversations(ctx context.Context) ([]chat.Summary, error)
	WatchThread(ctx context.Context, conversationID string) (<-chan chat.Snapshot, error)
	SendText(ctx context.Context, conversationID, text string) (*chat.Message, error)
	SendMedia(ctx context.Context, conversationID string, f chat.File) (*chat.Message, error)
	StartCall(ctx context.Context, conversationID string, kind chat.CallKind) (string, error)
}

// Session is the console state for a single operator.
type Session struct {
	backend  Backend
	operator string
	bus      *bus.Bus
	status   *status.Machine
	logger   *zap.Logger

	root context.Context
	stop context.CancelFunc

	// selectMu serializes selection changes so exactly one thread
	// subscription exists at a time.
	selectMu sync.Mutex

	mu            sync.Mutex
	conversations []chat.Summary
	selected      string
	messages      []chat.Message
	input         string
	refreshGen    uint64
	refreshCancel context.CancelFunc
	watchCancel   context.CancelFunc
	watchDone     chan struct{}
}

// NewSession creates a session for operator. Events are published on b.
func NewSession(backend Backend, operator string, b *bus.Bus, logger *zap.Logger) *Session {
	root, stop := context.WithCancel(context.Background())
	return &Session{
		backend:  backend,
		operator: operator,
		bus:      b,
		status:   status.NewMachine(b),
		logger:   logger,
		root:     root,
		stop:     stop,
	}
}

// Operator returns the identity the session acts as.
func (s *Session) Operator() string { return s.operator }

// Status returns the refresh state machine.
func (s *Session) Status() *status.Machine { return s.status }

// Conversations returns the current conversation list.
func (s *Session) Conversations() []chat.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.conversations)
}

// Selected returns the selected conversation id, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectedSummary returns the list entry of the selected conversation.
func (s *Session) SelectedSummary() (chat.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.ID == s.selected {
			return c, true
		}
	}
	return chat.Summary{}, false
}

// Messages returns the thread of the selected conversation, oldest first.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Input returns the composer text.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetInput replaces the composer text.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// IsMine reports whether msg was authored by the session's operator.
func (s *Session) IsMine(msg chat.Message) bool {
	return s.operator != "" && msg.Sender == s.operator
}

func (s *Session) publish(kind, key string) {
	s.bus.Publish(bus.Event{Kind: kind, Key: key, Timestamp: time.Now()})
}

// Refresh reloads the conversation list. A Refresh started while another is
// in flight cancels it; only the latest one commits. On failure the previous
// list is kept and the status moves to Failed.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	s.refreshGen++
	gen := s.refreshGen
	s.refreshCancel = cancel
	_ = s.status.Transition(status.Loading)
	s.mu.Unlock()

	list, err := s.backend.ListConversations(ctx)

	s.mu.Lock()
	if gen != s.refreshGen {
		s.mu.Unlock()
		s.logger.Debug("refresh superseded", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	s.refreshCancel = nil
	if err != nil {
		_ = s.status.Fail(err)
		s.mu.Unlock()
		s.logger.Error("refresh conversations failed", zap.Error(err))
		return err
	}
	s.conversations = list
	autoSelect := ""
	if s.selected == "" && len(list) > 0 {
		autoSelect = list[0].ID
	}
	_ = s.status.Transition(status.Ready)
	s.mu.Unlock()

	s.logger.Debug("conversations refreshed", zap.Int("count", len(list)))
	s.publish(bus.KindConversationsChanged, "")

	if autoSelect != "" {
		if err := s.selectIfNone(ctx, autoSelect); err != nil {
			s.logger.Error("auto-select failed", zap.String("conversation", autoSelect), zap.Error(err))
		}
	}
	return nil
}

// Select makes id the selected conversation, tearing down the previous
// thread subscription before starting the new one. An empty id clears the
// selection. ctx bounds establishing the subscription only.
func (s *Session) Select(ctx context.Context, id string) error {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	return s.selectLocked(ctx, id)
}

func (s *Session) selectIfNone(ctx context.Context, id string) error {
	s.selectMu.Lock()
	defer s.selectMu.Unlock()
	if s.Selected() != "" {
		return nil
	}
	return s.selectLocked(ctx, id)
}

func (s *Session) selectLocked(ctx context.Context, id string) error {
	s.mu.Lock()
	cancel, done := s.watchCancel, s.watchDone
	s.watchCancel, s.watchDone = nil, nil
	s.selected = id
	s.messages = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.publish(bus.KindSelectionChanged, id)
	if id == "" {
		return nil
	}

	watchCtx, watchCancel := context.WithCancel(s.root)
	stop := context.AfterFunc(ctx, watchCancel)
	ch, err := s.backend.WatchThread(watchCtx, id)
	if !stop() {
		err = errors.Join(err, ctx.Err())
	}
	if err != nil {
		watchCancel()
		s.logger.Error("thread subscription failed", zap.String("conversation", id), zap.Error(err))
		return err
	}

	done = make(chan struct{})
	s.mu.Lock()
	s.watchCancel, s.watchDone = watchCancel, done
	s.mu.Unlock()

	go s.consume(watchCtx, id, ch, done)
	return nil
}

func (s *Session) consume(ctx context.Context, id string, ch <-chan chat.Snapshot, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				if ctx.Err() == nil {
					s.logger.Warn("thread subscription ended", zap.String("conversation", id))
				}
				return
			}
			s.apply(id, snap)
		}
	}
}

func (s *Session) apply(id string, snap chat.Snapshot) {
	s.mu.Lock()
	if snap.ConversationID != id || s.selected != id {
		s.mu.Unlock()
		s.logger.Debug("stale snapshot discarded",
			zap.String("snapshot", snap.ConversationID),
			zap.String("selected", id))
		return
	}
	s.messages = slices.Clone(snap.Messages)
	s.mu.Unlock()
	s.publish(bus.KindThreadChanged, id)
}

// SendText sends the composer input to the selected conversation and clears
// it on success. Blank input, no selection or no operator make it a no-op.
func (s *Session) SendText(ctx context.Context) error {
	s.mu.Lock()
	text, id := s.input, s.selected
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" || id == "" || s.operator == "" {
		return nil
	}
	if _, err := s.backend.SendText(ctx, id, text); err != nil {
		s.logger.Error("send text failed", zap.String("conversation", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.input = ""
	s.mu.Unlock()
	return nil
}

// SendMedia sends files to the selected conversation one at a time. The
// first failure stops the batch; files sent before it stay sent.
func (s *Session) SendMedia(ctx context.Context, files []chat.File) (int, error) {
	id := s.Selected()
	if len(files) == 0 || id == "" || s.operator == "" {
		return 0, nil
	}
	for i, f := range files {
		if _, err := s.backend.SendMedia(ctx, id, f); err != nil {
			s.logger.Error("send media failed",
				zap.String("conversation", id),
				zap.String("file", f.Name),
				zap.Int("sent", i),
				zap.Error(err))
			return i, err
		}
	}
	return len(files), nil
}

// StartCall returns the call screen URL for the selected conversation, or ""
// when nothing is selected.
func (s *Session) StartCall(ctx context.Context, kind chat.CallKind) (string, error) {
	id := s.Selected()
	if id == "" {
		return "", nil
	}
	u, err := s.backend.StartCall(ctx, id, kind)
	if err != nil {
		s.logger.Error("start call failed", zap.String("conversation", id), zap.Error(err))
		return "", err
	}
	return u, nil
}

// Close tears down the thread subscription and cancels any refresh.
func (s *Session) Close() {
	s.mu.Lock()
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	done := s.watchDone
	s.mu.Unlock()

	s.stop()
	if done != nil {
		<-done
	}
}
