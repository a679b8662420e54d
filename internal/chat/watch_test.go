package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "snapshot channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestWatchDeliversInitialAndUpdatedSnapshots(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	m := NewMessenger(db, newMemBlobs(), b, zap.NewNop())
	w := NewWatcher(db, newMemBlobs(), b, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := m.SendText(ctx, conv, "pat1@x.com", "first")
	require.NoError(t, err)

	ch, err := w.Watch(ctx, conv)
	require.NoError(t, err)

	snap := nextSnapshot(t, ch)
	assert.Equal(t, conv, snap.ConversationID)
	require.Len(t, snap.Messages, 1)

	_, err = m.SendText(ctx, conv, doctor, "second")
	require.NoError(t, err)

	snap = nextSnapshot(t, ch)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "first", snap.Messages[0].Text)
	assert.Equal(t, "second", snap.Messages[1].Text)
	assert.True(t, snap.Messages[0].Timestamp.Before(snap.Messages[1].Timestamp))
}

func TestWatchIgnoresOtherConversations(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	m := NewMessenger(db, newMemBlobs(), b, zap.NewNop())
	w := NewWatcher(db, newMemBlobs(), b, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx, conv)
	require.NoError(t, err)
	assert.Empty(t, nextSnapshot(t, ch).Messages)

	_, err = m.SendText(ctx, "other@x.com_to_doc@y.com", "other@x.com", "elsewhere")
	require.NoError(t, err)
	_, err = m.SendText(ctx, conv, doctor, "here")
	require.NoError(t, err)

	snap := nextSnapshot(t, ch)
	for _, msg := range snap.Messages {
		assert.Equal(t, conv, msg.ConversationID)
	}
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "here", snap.Messages[0].Text)
}

func TestWatchClosesAndUnsubscribesOnCancel(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	w := NewWatcher(db, newMemBlobs(), b, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := w.Watch(ctx, conv)
	require.NoError(t, err)
	nextSnapshot(t, ch)
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSnapshotIssuesMediaURLsAtReadTime(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	m := NewMessenger(db, newMemBlobs(), bus.New(), zap.NewNop())
	_, err := m.SendMedia(ctx, conv, doctor, File{Name: "scan.png", ContentType: "image/png", Body: strings.NewReader("png")})
	require.NoError(t, err)

	stored, err := db.ListMessages(ctx, conv)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].MediaURL, "no url is persisted")
	assert.True(t, strings.HasPrefix(stored[0].MediaKey, "chatMedia/"+conv+"/"))

	urls := &rotatingURLs{}
	w := NewWatcher(db, urls, bus.New(), zap.NewNop())
	first, err := w.Snapshot(ctx, conv)
	require.NoError(t, err)
	second, err := w.Snapshot(ctx, conv)
	require.NoError(t, err)

	require.NotNil(t, first.Messages[0].Media)
	assert.Equal(t, "https://blobs.test/"+stored[0].MediaKey+"?v=1", first.Messages[0].Media.URL)
	assert.Equal(t, "https://blobs.test/"+stored[0].MediaKey+"?v=2", second.Messages[0].Media.URL)
}

func TestSnapshotKeepsMessageWhenURLFails(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.AppendMessage(ctx, &store.Message{
		ChatID: conv, Sender: doctor, MediaKey: "chatMedia/x/1-a.pdf", MediaType: "file", FileName: "a.pdf",
	}))

	snap, err := NewWatcher(db, failingURLs{}, bus.New(), zap.NewNop()).Snapshot(ctx, conv)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1)
	require.NotNil(t, snap.Messages[0].Media)
	assert.Empty(t, snap.Messages[0].Media.URL)
	assert.Equal(t, "a.pdf", snap.Messages[0].Media.FileName)
}
