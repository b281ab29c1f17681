package grid

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dhermica-backend/internal/appointments"
	"dhermica-backend/internal/cache"
	"dhermica-backend/internal/professionals"
	"dhermica-backend/internal/validation"

	"go.mongodb.org/mongo-driver/bson"
)

type streamRepo struct{}

func (streamRepo) Insert(ctx context.Context, item appointments.Appointment) error { return nil }
func (streamRepo) Update(ctx context.Context, id string, set bson.M) error         { return nil }
func (streamRepo) Delete(ctx context.Context, id string) (bool, error)             { return false, nil }
func (streamRepo) GetByID(ctx context.Context, id string) (*appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) FindByDateRange(ctx context.Context, from, to string) ([]appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) FindCandidates(ctx context.Context, professionalID, date string) ([]appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) FindByDateField(ctx context.Context, field, date string) ([]appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) FindLegacyByDate(ctx context.Context, collection, date string) ([]appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) SearchUnified(ctx context.Context, term, date string) ([]appointments.Appointment, error) {
	return nil, nil
}
func (streamRepo) SearchLegacy(ctx context.Context, collection, term, date string) ([]appointments.Appointment, error) {
	return nil, nil
}

type streamDirectory struct{}

func (streamDirectory) List(ctx context.Context, activeOnly bool) ([]professionals.Professional, error) {
	return []professionals.Professional{
		{ID: "p1", Name: "Daniela", Active: true, LegacyCollectionName: "turnos_daniela"},
	}, nil
}

func (streamDirectory) GetByID(ctx context.Context, id string) (*professionals.Professional, error) {
	return nil, nil
}

// streamFeed keeps ticking until its context is cancelled, standing in for
// a change stream on a busy collection.
type streamFeed struct {
	name string
}

func (f *streamFeed) Name() string { return f.name }

func (f *streamFeed) Snapshot(ctx context.Context) ([]appointments.Appointment, error) {
	return []appointments.Appointment{
		{ID: "a1", ClientName: "Lucía", Date: "2026-03-10", Time: "10:00", Duration: 1.0},
	}, nil
}

func (f *streamFeed) Watch(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

type streamFeeds struct{}

func (streamFeeds) Unified(field, date string) appointments.FeedSource {
	return &streamFeed{name: "unified:" + field}
}

func (streamFeeds) Legacy(collection, date string) appointments.FeedSource {
	return &streamFeed{name: "legacy:" + collection}
}

func TestStreamScheduleShutsDownOnDisconnect(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := streamDirectory{}
	syncer := appointments.NewSyncer(dir, nil, log, time.UTC)
	svc := appointments.NewService(streamRepo{}, dir, syncer, streamFeeds{}, log, time.UTC)
	h := NewHandler(svc, dir, validation.New(), cache.NewNoop(), log, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/schedule/stream?date=2026-03-10", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.StreamSchedule(rec, req)
		close(done)
	}()

	// Let a few events flow, then drop the client while the feeds are
	// still producing.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stream handler did not shut down after the client disconnected")
	}

	if !strings.Contains(rec.Body.String(), "data:") {
		t.Fatalf("expected at least one event frame, got: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
