package appointments

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dhermica-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type recordingCache struct {
	prefixes []string
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *recordingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.prefixes = append(c.prefixes, prefix)
	return nil
}

func (c *recordingCache) invalidated(prefix string) bool {
	for _, p := range c.prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

func TestUpdateInvalidatesBothDaysOnDateMove(t *testing.T) {
	repo := newFakeRepo()
	repo.items["a1"] = Appointment{
		ID: "a1", ClientName: "Martina", Treatment: "Masaje",
		Date: "2026-03-10", Time: "09:00", Duration: 1.0,
	}
	svc := newTestService(repo, &fakeDirectory{}, &fakeMirror{})
	cache := &recordingCache{}
	h := NewHandler(svc, validation.New(), cache, testLogger())

	r := chi.NewRouter()
	r.Put("/appointments/{id}", h.Update)

	req := httptest.NewRequest("PUT", "/appointments/a1", strings.NewReader(`{"date":"2026-03-12"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !cache.invalidated("schedule:2026-03-10") {
		t.Fatalf("day the appointment left kept a stale cache: %v", cache.prefixes)
	}
	if !cache.invalidated("schedule:2026-03-12") {
		t.Fatalf("day the appointment landed on kept a stale cache: %v", cache.prefixes)
	}
}

func TestUpdateWithoutDateMoveInvalidatesCurrentDay(t *testing.T) {
	repo := newFakeRepo()
	repo.items["a1"] = Appointment{
		ID: "a1", ClientName: "Martina", Treatment: "Masaje",
		Date: "2026-03-10", Time: "09:00", Duration: 1.0,
	}
	svc := newTestService(repo, &fakeDirectory{}, &fakeMirror{})
	cache := &recordingCache{}
	h := NewHandler(svc, validation.New(), cache, testLogger())

	r := chi.NewRouter()
	r.Put("/appointments/{id}", h.Update)

	req := httptest.NewRequest("PUT", "/appointments/a1", strings.NewReader(`{"time":"11:00"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !cache.invalidated("schedule:2026-03-10") {
		t.Fatalf("expected the appointment's day invalidated: %v", cache.prefixes)
	}
	if len(cache.prefixes) != 1 {
		t.Fatalf("expected exactly one invalidation: %v", cache.prefixes)
	}
}
