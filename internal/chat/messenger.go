package chat

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/chatconsole/chatconsole/internal/bus"
	"github.com/chatconsole/chatconsole/internal/store"
	"go.uber.org/zap"
)

// mediaRoot is the blob namespace for chat attachments.
const mediaRoot = "chatMedia"

// File is one attachment to upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Messenger appends messages to conversations and announces them on the bus.
type Messenger struct {
	store  Store
	blobs  Blobs
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewMessenger creates a messenger.
func NewMessenger(s Store, blobs Blobs, b *bus.Bus, logger *zap.Logger) *Messenger {
	return &Messenger{
		store:  s,
		blobs:  blobs,
		bus:    b,
		logger: logger,
		now:    time.Now,
	}
}

// SendText appends a text message from sender.
func (m *Messenger) SendText(ctx context.Context, conversationID, sender, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	return m.append(ctx, &store.Message{
		ChatID: conversationID,
		Sender: sender,
		Text:   body,
	})
}

// SendMedia uploads f and appends a media message referencing it.
func (m *Messenger) SendMedia(ctx context.Context, conversationID, sender string, f File) (*Message, error) {
	if _, _, err := SplitConversationID(conversationID); err != nil {
		return nil, err
	}
	name := cleanFileName(f.Name)
	key := MediaKey(conversationID, m.now(), name)

	if err := m.blobs.Put(ctx, key, f.Body); err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}
	return m.append(ctx, &store.Message{
		ChatID:    conversationID,
		Sender:    sender,
		MediaKey:  key,
		MediaType: string(ClassifyMedia(f.ContentType)),
		FileName:  name,
	})
}

func (m *Messenger) append(ctx context.Context, sm *store.Message) (*Message, error) {
	patient, operator, err := SplitConversationID(sm.ChatID)
	if err != nil {
		return nil, err
	}
	if err := m.store.EnsureConversation(ctx, &store.Conversation{
		ID:            sm.ChatID,
		PatientEmail:  patient,
		OperatorEmail: operator,
	}); err != nil {
		return nil, fmt.Errorf("ensure conversation: %w", err)
	}
	if err := m.store.AppendMessage(ctx, sm); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	msg, err := MessageFromStore(sm, m.blobs)
	if err != nil {
		return nil, err
	}
	m.bus.Publish(bus.Event{
		Kind:      bus.KindMessageAppended,
		Key:       sm.ChatID,
		Timestamp: msg.Timestamp,
		Payload:   msg,
	})
	m.logger.Debug("message appended",
		zap.String("conversation", sm.ChatID),
		zap.String("msg_id", sm.ID),
		zap.Bool("media", sm.HasMedia()))
	return &msg, nil
}

// MediaKey returns the blob key for an attachment:
// chatMedia/{conversation}/{unixMillis}-{name}.
func MediaKey(conversationID string, at time.Time, name string) string {
	return fmt.Sprintf("%s/%s/%d-%s", mediaRoot, conversationID, at.UnixMilli(), name)
}

func cleanFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case "", ".", "..", "/":
		return "file"
	}
	return base
}
