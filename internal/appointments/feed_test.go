package appointments

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeFeed struct {
	name  string
	mu    sync.Mutex
	items []Appointment
	ticks chan struct{}
	calls []string
}

func newFakeFeed(name string, items ...Appointment) *fakeFeed {
	return &fakeFeed{name: name, items: items, ticks: make(chan struct{})}
}

func (f *fakeFeed) Name() string { return f.name }

func (f *fakeFeed) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeFeed) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeFeed) Snapshot(ctx context.Context) ([]Appointment, error) {
	f.record("snapshot")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Appointment, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeFeed) Watch(ctx context.Context) (<-chan struct{}, error) {
	f.record("watch")
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.ticks:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (f *fakeFeed) setItems(items ...Appointment) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

func (f *fakeFeed) tick() {
	f.ticks <- struct{}{}
}

// waitForSnapshot drains onChange deliveries until one satisfies the
// predicate. Every refresh re-emits the full merged view, so waiting on a
// condition instead of a call count keeps the tests free of goroutine
// scheduling assumptions.
func waitForSnapshot(t *testing.T, snaps <-chan []Appointment, ok func([]Appointment) bool) []Appointment {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snaps:
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for expected snapshot")
		}
	}
}

func TestAggregatorDedupesAcrossFeeds(t *testing.T) {
	canonical := Appointment{ID: "a1", ClientName: "Lucía", Time: "10:00", Duration: 1.0, ProfessionalID: "p1"}
	mirrored := Appointment{ID: "a1", ClientName: "Lucía", Time: "10:00", Duration: 1.0}
	legacyOnly := Appointment{ID: "l2", ClientName: "Vieja", Time: "08:00", Duration: 0.5}

	unified := newFakeFeed("unified:date", canonical)
	legacy := newFakeFeed("legacy:turnos_daniela", mirrored, legacyOnly)

	snaps := make(chan []Appointment, 16)
	agg := NewAggregator([]FeedSource{unified, legacy}, func(items []Appointment) {
		snaps <- items
	}, testLogger())

	unsubscribe, err := agg.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer unsubscribe()

	snap := waitForSnapshot(t, snaps, func(items []Appointment) bool {
		return len(items) == 2
	})
	if snap[0].ID != "l2" || snap[1].ID != "a1" {
		t.Fatalf("expected time-sorted merge, got %+v", snap)
	}
	if snap[1].ProfessionalID != "p1" {
		t.Fatalf("canonical record must win the dedupe: %+v", snap[1])
	}
}

func TestAggregatorReEmitsOnTick(t *testing.T) {
	unified := newFakeFeed("unified:date",
		Appointment{ID: "a1", ClientName: "Lucía", Time: "10:00", Duration: 1.0})

	snaps := make(chan []Appointment, 16)
	agg := NewAggregator([]FeedSource{unified}, func(items []Appointment) {
		snaps <- items
	}, testLogger())

	unsubscribe, err := agg.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer unsubscribe()

	waitForSnapshot(t, snaps, func(items []Appointment) bool {
		return len(items) == 1
	})

	unified.setItems(
		Appointment{ID: "a1", ClientName: "Lucía", Time: "10:00", Duration: 1.0},
		Appointment{ID: "a2", ClientName: "Sofía", Time: "14:00", Duration: 1.0},
	)
	unified.tick()

	snap := waitForSnapshot(t, snaps, func(items []Appointment) bool {
		return len(items) == 2
	})
	if snap[0].ID != "a1" || snap[1].ID != "a2" {
		t.Fatalf("expected refreshed snapshot, got %+v", snap)
	}
}

func TestAggregatorOpensStreamBeforeFirstSnapshot(t *testing.T) {
	feed := newFakeFeed("unified:date")

	snaps := make(chan []Appointment, 16)
	agg := NewAggregator([]FeedSource{feed}, func(items []Appointment) {
		snaps <- items
	}, testLogger())

	unsubscribe, err := agg.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForSnapshot(t, snaps, func([]Appointment) bool { return true })
	unsubscribe()

	calls := feed.callLog()
	if len(calls) < 2 || calls[0] != "watch" || calls[1] != "snapshot" {
		t.Fatalf("a write between snapshot and watch would go missing, call order: %v", calls)
	}
}

func TestAggregatorSlowSubscriberSeesLatestMerge(t *testing.T) {
	feedA := newFakeFeed("unified:date",
		Appointment{ID: "a1", ClientName: "Lucía", Time: "10:00", Duration: 1.0})
	feedB := newFakeFeed("legacy:turnos_daniela")

	var mu sync.Mutex
	var deliveries [][]Appointment
	agg := NewAggregator([]FeedSource{feedA, feedB}, func(items []Appointment) {
		// A slow subscriber lets refreshes from different feeds pile up.
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		deliveries = append(deliveries, items)
		mu.Unlock()
	}, testLogger())

	unsubscribe, err := agg.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	delivered := func(cond func([][]Appointment) bool) bool {
		mu.Lock()
		defer mu.Unlock()
		return cond(deliveries)
	}
	waitUntil(t, func() bool {
		return delivered(func(d [][]Appointment) bool { return len(d) >= 2 })
	})

	feedB.setItems(Appointment{ID: "b1", ClientName: "Sofía", Time: "14:00", Duration: 1.0})
	feedA.tick()
	feedB.tick()

	waitUntil(t, func() bool {
		return delivered(func(d [][]Appointment) bool {
			return len(d) > 0 && containsID(d[len(d)-1], "b1")
		})
	})
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	last := deliveries[len(deliveries)-1]
	if !containsID(last, "b1") {
		t.Fatalf("final delivery lost a refreshed record: %+v", last)
	}
}

func containsID(items []Appointment, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestAggregatorTeardownStopsAllFeeds(t *testing.T) {
	feeds := []FeedSource{
		newFakeFeed("unified:date"),
		newFakeFeed("unified:fecha"),
		newFakeFeed("legacy:turnos_daniela"),
	}

	agg := NewAggregator(feeds, func([]Appointment) {}, testLogger())
	unsubscribe, err := agg.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		unsubscribe()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("unsubscribe did not stop every feed")
	}
}
