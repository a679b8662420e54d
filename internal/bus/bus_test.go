package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", "", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageAppended, Key: "a_to_doc@x.com", Timestamp: time.Now()})

	select {
	case evt := <-ch:
		if evt.Kind != KindMessageAppended {
			t.Errorf("got kind %q, want %s", evt.Kind, KindMessageAppended)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("refresh.", "", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageAppended})
	b.Publish(Event{Kind: KindRefreshStatus})

	select {
	case evt := <-ch:
		if evt.Kind != KindRefreshStatus {
			t.Errorf("got kind %q, want %s", evt.Kind, KindRefreshStatus)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestKeyFilteringIsExact guards against prefix collisions between
// conversation ids that share a leading substring.
func TestKeyFilteringIsExact(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(KindMessageAppended, "p@x.com_to_doc@y.com", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageAppended, Key: "p@x.com_to_doc@y.com.au"})
	b.Publish(Event{Kind: KindMessageAppended, Key: "p@x.com_to_doc@y.com"})

	evt := <-ch
	if evt.Key != "p@x.com_to_doc@y.com" {
		t.Errorf("got key %q, want exact match", evt.Key)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event for key %q", evt.Key)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", "", 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: KindMessageAppended})

	if _, ok := <-ch; ok {
		t.Error("received event after unsubscribe")
	}
	if n := b.Subscribers(); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", "", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
}
