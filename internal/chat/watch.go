package chat

import (
	"context"
	"fmt"

	"github.com/chatconsole/chatconsole/internal/bus"
	"go.uber.org/zap"
)

const watchBufferSize = 16

// Watcher serves live, full-snapshot views of a conversation thread.
type Watcher struct {
	store  Store
	urls   MediaURLs
	bus    *bus.Bus
	logger *zap.Logger
}

// NewWatcher creates a watcher reading from s and woken by appends on b.
// Media URLs in snapshots are issued by urls at read time.
func NewWatcher(s Store, urls MediaURLs, b *bus.Bus, logger *zap.Logger) *Watcher {
	return &Watcher{store: s, urls: urls, bus: b, logger: logger}
}

// Snapshot reads every message of a conversation, oldest first.
func (w *Watcher) Snapshot(ctx context.Context, conversationID string) (Snapshot, error) {
	stored, err := w.store.ListMessages(ctx, conversationID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list messages of %q: %w", conversationID, err)
	}
	msgs := make([]Message, 0, len(stored))
	for i := range stored {
		msg, err := MessageFromStore(&stored[i], w.urls)
		if err != nil {
			w.logger.Warn("media url unavailable", zap.String("conversation", conversationID),
				zap.String("msg_id", msg.ID), zap.Error(err))
		}
		msgs = append(msgs, msg)
	}
	return Snapshot{ConversationID: conversationID, Messages: msgs}, nil
}

// Watch delivers the current snapshot immediately and a fresh one after
// every append to the conversation. The channel is closed when ctx ends or
// a store read fails.
func (w *Watcher) Watch(ctx context.Context, conversationID string) (<-chan Snapshot, error) {
	// Subscribe before the first read so no append can slip between them.
	events, unsub := w.bus.Subscribe(bus.KindMessageAppended, conversationID, watchBufferSize)

	initial, err := w.Snapshot(ctx, conversationID)
	if err != nil {
		unsub()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer unsub()

		snap := initial
		for {
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case _, ok := <-events:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
			drain(events)

			next, err := w.Snapshot(ctx, conversationID)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("thread snapshot failed", zap.Error(err), zap.String("conversation", conversationID))
				}
				return
			}
			snap = next
		}
	}()
	return out, nil
}

// drain discards already-queued events; the next snapshot covers them.
func drain(events <-chan bus.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
