package chat

import (
	"context"
	"io"

	"github.com/chatconsole/chatconsole/internal/store"
)

// Store is the document store the chat components read from and append to.
// *store.DB satisfies it.
type Store interface {
	ListConversationIDs(ctx context.Context) ([]string, error)
	EnsureConversation(ctx context.Context, c *store.Conversation) error
	LatestMessage(ctx context.Context, chatID string) (*store.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]store.Message, error)
	AppendMessage(ctx context.Context, m *store.Message) error
	FirstAppointmentFor(ctx context.Context, patientEmail string) (*store.Appointment, error)
}

// MediaURLs issues download URLs for stored media keys. URLs may expire, so
// they are issued each time a message is read and never persisted.
type MediaURLs interface {
	URL(key string) (string, error)
}

// Blobs stores uploaded media and issues retrievable URLs for it.
type Blobs interface {
	MediaURLs
	Put(ctx context.Context, key string, r io.Reader) error
}

// Authorizer decides whether an identity may act as an operator.
type Authorizer interface {
	IsOperator(email string) bool
}
