package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chatconsole/chatconsole/internal/store"
	"github.com/stretchr/testify/require"
)

const doctor = "doc@y.com"

type operatorFunc func(string) bool

func (f operatorFunc) IsOperator(email string) bool { return f(email) }

func onlyDoctor() Authorizer {
	return operatorFunc(func(e string) bool { return e == doctor })
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedMessage writes a message with an explicit timestamp, bypassing the
// store's clock.
func seedMessage(t *testing.T, db *store.DB, chatID, sender, text string, ts int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO chats (id, created_at) VALUES (?, 0) ON CONFLICT(id) DO NOTHING`, chatID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO messages (id, chat_id, sender, timestamp, text) VALUES (?, ?, ?, ?, ?)`,
		fmt.Sprintf("%s-%d", chatID, ts), chatID, sender, ts, text)
	require.NoError(t, err)
}

// memBlobs is an in-memory Blobs.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if b.failOn != "" && bytes.Contains([]byte(key), []byte(b.failOn)) {
		return fmt.Errorf("upload refused")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memBlobs) URL(key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (b *memBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.objects {
		keys = append(keys, k)
	}
	return keys
}

// rotatingURLs issues a different URL on every call, like a signer whose
// tokens carry their issue time.
type rotatingURLs struct {
	mu     sync.Mutex
	issued int
}

func (r *rotatingURLs) URL(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return fmt.Sprintf("https://blobs.test/%s?v=%d", key, r.issued), nil
}

type failingURLs struct{}

func (failingURLs) URL(key string) (string, error) {
	return "", fmt.Errorf("no signer for %s", key)
}
