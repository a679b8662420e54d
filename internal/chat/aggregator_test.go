package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chatconsole/chatconsole/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSummariesSingleConversationWithAppointment(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.AddAppointment(ctx, &store.Appointment{
		PatientEmail: "pat1@x.com",
		PatientName:  "Ana",
		Urgency:      "high",
	})
	require.NoError(t, err)
	seedMessage(t, db, "pat1@x.com_to_doc@y.com", "pat1@x.com", "hello", 1_700_000_000_000)

	got, err := NewAggregator(db, onlyDoctor(), zap.NewNop()).Summaries(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "pat1@x.com_to_doc@y.com", s.ID)
	assert.Equal(t, "pat1@x.com", s.PatientEmail)
	assert.Equal(t, "Ana", s.Patient.Name)
	assert.Equal(t, UrgencyHigh, s.Patient.Urgency)
	assert.Equal(t, "N/A", s.Patient.Age)
	assert.Equal(t, "hello", s.LastMessage)
	assert.Equal(t, int64(1_700_000_000_000), s.LastMessageTime.UnixMilli())
	assert.Zero(t, s.UnreadCount)
}

func TestSummariesOnlyOwnedNonEmptyConversations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seedMessage(t, db, "a@x.com_to_doc@y.com", "a@x.com", "mine", 1000)
	seedMessage(t, db, "b@x.com_to_other@y.com", "b@x.com", "not mine", 2000)
	seedMessage(t, db, "c@x.com_to_doc@y.com.au", "c@x.com", "lookalike", 3000)
	require.NoError(t, db.EnsureConversation(ctx, &store.Conversation{ID: "d@x.com_to_doc@y.com"}))

	got, err := NewAggregator(db, onlyDoctor(), zap.NewNop()).Summaries(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com_to_doc@y.com", got[0].ID)
	assert.Equal(t, "a", got[0].Patient.Name, "fallback profile uses the local part")
}

func TestSummariesSortedNewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i, ts := range []int64{5000, 1000, 9000, 3000, 7000} {
		id := fmt.Sprintf("p%d@x.com_to_doc@y.com", i)
		seedMessage(t, db, id, doctor, "older", ts-500)
		seedMessage(t, db, id, doctor, fmt.Sprintf("latest %d", ts), ts)
	}

	got, err := NewAggregator(db, onlyDoctor(), zap.NewNop()).Summaries(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].LastMessageTime.Before(got[i].LastMessageTime),
			"summary %d newer than %d", i, i-1)
	}
	assert.Equal(t, "latest 9000", got[0].LastMessage)
	assert.Equal(t, "latest 1000", got[4].LastMessage)
}

func TestSummariesMediaPreview(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.AppendMessage(ctx, &store.Message{
		ChatID:    "p@x.com_to_doc@y.com",
		Sender:    "p@x.com",
		MediaURL:  "https://blobs.test/x.png",
		MediaType: "image",
		FileName:  "x.png",
	}))

	got, err := NewAggregator(db, onlyDoctor(), zap.NewNop()).Summaries(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Media file", got[0].LastMessage)
}

func TestSummariesRejectsNonOperator(t *testing.T) {
	db := testDB(t)
	seedMessage(t, db, "p@x.com_to_intruder@y.com", "p@x.com", "hi", 1000)

	got, err := NewAggregator(db, onlyDoctor(), zap.NewNop()).Summaries(context.Background(), "intruder@y.com")
	assert.ErrorIs(t, err, ErrNotOperator)
	assert.Nil(t, got)
}

func TestSummariesEmptyStore(t *testing.T) {
	got, err := NewAggregator(testDB(t), onlyDoctor(), zap.NewNop()).Summaries(context.Background(), doctor)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingStore struct {
	Store
	failLatestFor string
}

var errBoom = errors.New("boom")

func (f failingStore) LatestMessage(ctx context.Context, chatID string) (*store.Message, error) {
	if chatID == f.failLatestFor {
		return nil, errBoom
	}
	return f.Store.LatestMessage(ctx, chatID)
}

func TestSummariesFailOnAnyStoreError(t *testing.T) {
	db := testDB(t)
	seedMessage(t, db, "a@x.com_to_doc@y.com", "a@x.com", "ok", 1000)
	seedMessage(t, db, "b@x.com_to_doc@y.com", "b@x.com", "broken", 2000)

	s := failingStore{Store: db, failLatestFor: "b@x.com_to_doc@y.com"}
	got, err := NewAggregator(s, onlyDoctor(), zap.NewNop()).Summaries(context.Background(), doctor)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, got)
}

func TestSortSummariesTieBreaksByID(t *testing.T) {
	at := time.UnixMilli(1000)
	s := []Summary{
		{ID: "c", LastMessageTime: at},
		{ID: "a", LastMessageTime: at},
		{ID: "b", LastMessageTime: at.Add(time.Second)},
	}
	SortSummaries(s)
	assert.Equal(t, []string{"b", "a", "c"}, []string{s[0].ID, s[1].ID, s[2].ID})
}
