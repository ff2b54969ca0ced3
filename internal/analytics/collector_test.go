package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return f.err
}

func (f *fakePublisher) events() []kafka.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []kafka.Event
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorPublishesTrackedEvents(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, 4)
	c.Start(context.Background())

	c.Track(SearchEvent{Type: EventSearch, Query: "foo", Matches: 3})
	c.Track(FileEvent{Type: EventScan, Root: "/tmp", Files: 10})
	c.Track("plain")
	c.Close()

	got := pub.events()
	if len(got) != 3 {
		t.Fatalf("published %d events, want 3", len(got))
	}
	wantKeys := []string{"search", "scan", "analytics"}
	for i, k := range wantKeys {
		if got[i].Key != k {
			t.Errorf("event %d key = %q, want %q", i, got[i].Key, k)
		}
	}
	for _, b := range pub.batches {
		if len(b) > 4 {
			t.Errorf("batch of %d exceeds batch size 4", len(b))
		}
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 2, 10)
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	c.Track(SearchEvent{Query: "c"})

	c.Start(context.Background())
	c.Close()
	if got := len(pub.events()); got != 2 {
		t.Errorf("published %d events, want 2", got)
	}
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 8, 1)
	c.Start(context.Background())
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	c.Close()
	if got := len(pub.batches); got != 2 {
		t.Errorf("publish attempts = %d, want 2", got)
	}
}

func TestCollectorDrainsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 8, 8)
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		c.Track(FileEvent{Type: EventStats, Files: i})
	}
	cancel()
	c.Start(ctx)

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after cancel")
	}
	if got := len(pub.events()); got != 5 {
		t.Errorf("published %d events, want 5", got)
	}
}
