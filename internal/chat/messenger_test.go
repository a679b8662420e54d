package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const conv = "pat1@x.com_to_doc@y.com"

func TestSendTextAppendsAndPublishes(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	events, unsub := b.Subscribe(bus.KindMessageAppended, conv, 4)
	defer unsub()

	m := NewMessenger(db, newMemBlobs(), b, zap.NewNop())
	msg, err := m.SendText(context.Background(), conv, doctor, "Take the medicine twice a day")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, doctor, msg.Sender)
	assert.Nil(t, msg.Media)

	select {
	case evt := <-events:
		assert.Equal(t, conv, evt.Key)
		got, ok := evt.Payload.(Message)
		require.True(t, ok)
		assert.Equal(t, msg.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no append event published")
	}

	conversation, err := db.GetConversation(context.Background(), conv)
	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.Equal(t, "pat1@x.com", conversation.PatientEmail)
	assert.Equal(t, doctor, conversation.OperatorEmail)
}

func TestSendTextRejectsBlank(t *testing.T) {
	db := testDB(t)
	m := NewMessenger(db, newMemBlobs(), bus.New(), zap.NewNop())

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := m.SendText(context.Background(), conv, doctor, body)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	msgs, err := db.ListMessages(context.Background(), conv)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendTextRejectsMalformedConversation(t *testing.T) {
	m := NewMessenger(testDB(t), newMemBlobs(), bus.New(), zap.NewNop())
	_, err := m.SendText(context.Background(), "nobody", doctor, "hi")
	assert.ErrorIs(t, err, ErrInvalidConversation)
}

func TestSendMediaUploadsThenAppends(t *testing.T) {
	db := testDB(t)
	blobs := newMemBlobs()
	m := NewMessenger(db, blobs, bus.New(), zap.NewNop())
	m.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }

	msg, err := m.SendMedia(context.Background(), conv, doctor, File{
		Name:        "scan.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)

	wantKey := "chatMedia/" + conv + "/1700000000123-scan.png"
	assert.Equal(t, []string{wantKey}, blobs.keys())
	require.NotNil(t, msg.Media)
	assert.Equal(t, "https://blobs.test/"+wantKey, msg.Media.URL)
	assert.Equal(t, MediaImage, msg.Media.Kind)
	assert.Equal(t, "scan.png", msg.Media.FileName)
	assert.Empty(t, msg.Text)

	msgs, err := db.ListMessages(context.Background(), conv)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "image", msgs[0].MediaType)
}

func TestSendMediaKinds(t *testing.T) {
	m := NewMessenger(testDB(t), newMemBlobs(), bus.New(), zap.NewNop())
	for ct, want := range map[string]MediaKind{
		"video/mp4":       MediaVideo,
		"application/pdf": MediaFile,
	} {
		msg, err := m.SendMedia(context.Background(), conv, doctor, File{Name: "f", ContentType: ct, Body: strings.NewReader("x")})
		require.NoError(t, err)
		assert.Equal(t, want, msg.Media.Kind, ct)
	}
}

func TestSendMediaUploadFailureAppendsNothing(t *testing.T) {
	db := testDB(t)
	blobs := newMemBlobs()
	blobs.failOn = "bad"
	m := NewMessenger(db, blobs, bus.New(), zap.NewNop())

	_, err := m.SendMedia(context.Background(), conv, doctor, File{Name: "bad.pdf", Body: strings.NewReader("x")})
	require.Error(t, err)

	msgs, err := db.ListMessages(context.Background(), conv)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMediaKeyStripsDirectories(t *testing.T) {
	at := time.UnixMilli(42)
	assert.Equal(t, "chatMedia/a_to_b/42-x.png", MediaKey("a_to_b", at, cleanFileName("../../etc/x.png")))
	assert.Equal(t, "chatMedia/a_to_b/42-y.txt", MediaKey("a_to_b", at, cleanFileName(`C:\docs\y.txt`)))
	assert.Equal(t, "file", cleanFileName(""))
	assert.Equal(t, "file", cleanFileName(".."))
}
